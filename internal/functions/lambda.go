package functions

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler returns an API Gateway proxy handler for the named function.
func (f *Functions) LambdaHandler(name string) (func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error), error) {
	fn, ok := f.Handlers()[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q (available: %v)", name, f.Names())
	}

	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := event.Body
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				return events.APIGatewayProxyResponse{StatusCode: 400, Headers: corsHeaders(), Body: `{"success":false,"message":"Invalid request body"}`}, nil
			}
			body = string(decoded)
		}

		resp := fn(ctx, Request{
			Method:     event.HTTPMethod,
			Path:       event.Path,
			PathParams: event.PathParameters,
			Query:      event.QueryStringParameters,
			Headers:    event.Headers,
			Body:       body,
		})
		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}, nil
	}, nil
}
