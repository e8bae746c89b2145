package main

// Build the API Gateway (HTTP API, payload v2) handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/bootstrap"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/telemetry"
)

// buildRouter is replaced in tests.
var buildRouter = func(ctx context.Context) (*gin.Engine, error) {
	cfg := config.Load()
	if err := telemetry.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		return nil, err
	}
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

type proxy struct {
	once    sync.Once
	err     error
	adapter *ginadapter.GinLambdaV2
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p.once.Do(func() {
		router, err := buildRouter(context.Background())
		if err != nil {
			p.err = err
			return
		}
		p.adapter = ginadapter.NewV2(router)
	})
	if p.err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": p.err})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":{"code":"internal","message":"service unavailable"}}`,
		}, nil
	}
	return p.adapter.ProxyWithContext(ctx, req)
}

func main() {
	p := &proxy{}
	lambda.Start(p.handle)
}
