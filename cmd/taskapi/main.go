package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"

	"task-api/internal/api"
	"task-api/internal/config"
	"task-api/internal/logging"
	"task-api/internal/tasks"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskapi error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "lambda":
		return runLambda(args[1:])
	case "task":
		return runTask(args[1:])
	default:
		return printUsage()
	}
}

type commonFlags struct {
	configPath *string
	envFile    *string
	table      *string
	store      *string
	dsn        *string
}

func registerCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "Path to a TOML config file"),
		envFile:    fs.String("env-file", ".env", "Path to a .env file (ignored when missing)"),
		table:      fs.String("table", "", "Backing table name (overrides "+config.EnvTable+")"),
		store:      fs.String("store", "", "Store backend: memory, sqlite, mysql, postgres, dynamodb"),
		dsn:        fs.String("dsn", "", "SQL DSN or sqlite path (overrides "+config.EnvDSN+")"),
	}
}

// loadConfig resolves and validates configuration; any failure here stops the
// process before it serves a request.
func (f commonFlags) loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(*f.envFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if *f.table != "" {
		cfg.Table = *f.table
	}
	if *f.store != "" {
		cfg.Store = config.StoreKind(strings.ToLower(*f.store))
	}
	if *f.dsn != "" {
		cfg.DSN = *f.dsn
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	service *tasks.Service
	close   func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s task store: %w", cfg.Store, err)
	}
	logger.Info("task store ready",
		slog.String("store", string(cfg.Store)),
		slog.String("table", cfg.Table),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		service: tasks.NewService(store),
		close:   closeStore,
	}, nil
}

func (a *app) router() *api.Router {
	var opts []api.Option
	if a.cfg.CORSAllowOrigin != "" {
		opts = append(opts, api.WithCORSOrigin(a.cfg.CORSAllowOrigin))
	}
	return api.NewRouter(a.service, logging.WithComponent(a.logger, "api"), opts...)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	addr := fs.String("addr", "", "HTTP listen address (overrides "+config.EnvHTTPAddr+")")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.close()
	}()

	server := api.NewServer(a.router(), logging.WithComponent(a.logger, "http"))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

func runLambda(args []string) error {
	fs := flag.NewFlagSet("lambda", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}

	// lambda.Start never returns; the store stays open for the life of the
	// execution environment and is released when the runtime exits.
	lambda.Start(a.router().HandleAPIGateway)
	return nil
}

func runTask(args []string) error {
	if len(args) == 0 {
		return printTaskUsage()
	}

	switch args[0] {
	case "create":
		return runTaskCreate(args[1:])
	case "get":
		return runTaskGet(args[1:])
	case "update":
		return runTaskUpdate(args[1:])
	case "delete":
		return runTaskDelete(args[1:])
	default:
		return printTaskUsage()
	}
}

type fieldFlags struct {
	title       *string
	description *string
	status      *string
}

func registerFieldFlags(fs *flag.FlagSet) fieldFlags {
	return fieldFlags{
		title:       fs.String("title", "", "Task title"),
		description: fs.String("description", "", "Task description"),
		status:      fs.String("status", "", "Task status"),
	}
}

func (f fieldFlags) task(fs *flag.FlagSet, id string) (tasks.Task, error) {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if !set["title"] || !set["description"] || !set["status"] {
		return tasks.Task{}, fmt.Errorf("--title, --description, and --status are required")
	}
	return tasks.Task{ID: id, Title: *f.title, Description: *f.description, Status: *f.status}, nil
}

func openTaskApp(fs *flag.FlagSet, common commonFlags, args []string) (*app, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := common.loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(context.Background(), cfg)
}

func runTaskCreate(args []string) error {
	fs := flag.NewFlagSet("task create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	fields := registerFieldFlags(fs)

	a, err := openTaskApp(fs, common, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.close()
	}()

	input, err := fields.task(fs, "")
	if err != nil {
		return err
	}
	task, err := a.service.CreateTask(context.Background(), input)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	fmt.Printf("task_id=%s result=created\n", task.ID)
	return nil
}

func runTaskGet(args []string) error {
	fs := flag.NewFlagSet("task get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	id := fs.String("id", "", "Task ID")

	a, err := openTaskApp(fs, common, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.close()
	}()

	task, found, err := a.service.GetTask(context.Background(), *id)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if !found {
		return fmt.Errorf("task %q not found", *id)
	}

	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(task)
}

func runTaskUpdate(args []string) error {
	fs := flag.NewFlagSet("task update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	id := fs.String("id", "", "Task ID")
	fields := registerFieldFlags(fs)

	a, err := openTaskApp(fs, common, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.close()
	}()

	input, err := fields.task(fs, *id)
	if err != nil {
		return err
	}
	if _, err := a.service.UpdateTask(context.Background(), input); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	fmt.Printf("task_id=%s result=updated\n", input.ID)
	return nil
}

func runTaskDelete(args []string) error {
	fs := flag.NewFlagSet("task delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	common := registerCommonFlags(fs)
	id := fs.String("id", "", "Task ID")

	a, err := openTaskApp(fs, common, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.close()
	}()

	if err := a.service.DeleteTask(context.Background(), *id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	fmt.Printf("task_id=%s result=deleted\n", *id)
	return nil
}

func printUsage() error {
	fmt.Println("taskapi usage:")
	fmt.Println("  taskapi serve [--addr :8080] [--config path] [--env-file path] [--store kind] [--dsn dsn] [--table name]")
	fmt.Println("  taskapi lambda [--config path] [--env-file path] [--store kind] [--dsn dsn] [--table name]")
	fmt.Println("  taskapi task create|get|update|delete ...")
	return nil
}

func printTaskUsage() error {
	fmt.Println("taskapi task usage:")
	fmt.Println("  taskapi task create --title t --description d --status s [store flags]")
	fmt.Println("  taskapi task get --id id [store flags]")
	fmt.Println("  taskapi task update --id id --title t --description d --status s [store flags]")
	fmt.Println("  taskapi task delete --id id [store flags]")
	return nil
}
