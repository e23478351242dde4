package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func TestHandleAPIGatewayCreateThenGet(t *testing.T) {
	t.Parallel()

	h := newAPITestHarness(t, WithCORSOrigin("*"))

	created, err := h.Router.HandleAPIGateway(h.Ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            TaskPath,
		Body:            base64.StdEncoding.EncodeToString([]byte(buyMilk)),
		IsBase64Encoded: true,
	})
	if err != nil {
		t.Fatalf("HandleAPIGateway create: %v", err)
	}
	if created.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", created.StatusCode, created.Body)
	}
	if created.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("expected CORS header, got %#v", created.Headers)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(created.Body), &body); err != nil {
		t.Fatalf("decode create body: %v", err)
	}

	read, err := h.Router.HandleAPIGateway(h.Ctx, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  TaskPath,
		QueryStringParameters: map[string]string{"taskId": body["taskId"]},
	})
	if err != nil {
		t.Fatalf("HandleAPIGateway read: %v", err)
	}
	if read.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on read, got %d (%s)", read.StatusCode, read.Body)
	}
}

func TestHandleAPIGatewayMissingQueryAndBadRoute(t *testing.T) {
	t.Parallel()

	h := newAPITestHarness(t)

	resp, err := h.Router.HandleAPIGateway(h.Ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodDelete,
		Path:       TaskPath,
	})
	if err != nil {
		t.Fatalf("HandleAPIGateway: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, _ = h.Router.HandleAPIGateway(h.Ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/tasks/abc",
	})
	if resp.StatusCode != http.StatusBadRequest || resp.Body != `{"message":"Unsupported route"}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
}

func TestHandleAPIGatewayRejectsBadBase64(t *testing.T) {
	t.Parallel()

	h := newAPITestHarness(t)
	resp, err := h.Router.HandleAPIGateway(h.Ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            TaskPath,
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	if err != nil {
		t.Fatalf("HandleAPIGateway: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
