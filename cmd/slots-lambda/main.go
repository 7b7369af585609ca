package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/wolfman30/kinesio-agenda/cmd/mainconfig"
	appconfig "github.com/wolfman30/kinesio-agenda/internal/config"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// clientIPHeaders are the headers chi's RealIP and the booking rate limiter
// read the caller's address from. API Gateway's SourceIP replaces all of them.
var clientIPHeaders = []string{"true-client-ip", "x-real-ip", "x-forwarded-for"}

type lambdaHandler func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		panic(err)
	}

	app, err := mainconfig.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		panic(err)
	}

	lambda.Start(newLambdaHandler(app.Handler, logger))
}

// newLambdaHandler replays API Gateway HTTP events through the router.
func newLambdaHandler(handler http.Handler, logger *logging.Logger) lambdaHandler {
	if logger == nil {
		logger = logging.Default()
	}
	adapter := httpadapter.NewV2(handler)
	return func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if err := validateBody(evt); err != nil {
			logger.Warn("slots-lambda: rejecting undecodable body", "error", err)
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
		}
		evt.Headers = trustedHeaders(evt)
		resp, err := adapter.ProxyWithContext(ctx, evt)
		if err != nil {
			logger.Error("slots-lambda: proxy failed", "error", err, "path", evt.RawPath)
		}
		return resp, err
	}
}

func validateBody(evt events.APIGatewayV2HTTPRequest) error {
	if !evt.IsBase64Encoded {
		return nil
	}
	_, err := base64.StdEncoding.DecodeString(evt.Body)
	return err
}

// trustedHeaders copies the event headers, dropping any client supplied
// address and pinning X-Real-Ip to the gateway's SourceIP.
func trustedHeaders(evt events.APIGatewayV2HTTPRequest) map[string]string {
	out := make(map[string]string, len(evt.Headers)+1)
	for k, v := range evt.Headers {
		if isClientIPHeader(k) {
			continue
		}
		out[k] = v
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		out["x-real-ip"] = ip
	}
	return out
}

func isClientIPHeader(name string) bool {
	for _, h := range clientIPHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
