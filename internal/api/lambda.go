package api

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGateway serves an API Gateway proxy event through Dispatch.
func (r *Router) HandleAPIGateway(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req := Request{
		Method: event.HTTPMethod,
		Path:   event.Path,
		Query:  event.QueryStringParameters,
	}

	if event.Body != "" {
		body := event.Body
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				resp := messageResponse(http.StatusBadRequest, MsgInvalidBody)
				r.decorate(&resp)
				return toProxyResponse(resp), nil
			}
			body = string(decoded)
		}
		req.Body = &body
	}

	return toProxyResponse(r.Dispatch(ctx, req)), nil
}

func toProxyResponse(resp Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}
