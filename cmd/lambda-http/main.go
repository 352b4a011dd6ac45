package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"cvgen-backend/internal/bootstrap"
	"cvgen-backend/internal/shared/config"
)

// Only /tmp is writable inside the Lambda sandbox.
const lambdaScratch = "/tmp"

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2
)

func initApp() {
	cfg := lambdaConfig(config.Load())
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	ginLambda = ginadapter.NewV2(app.Router)
}

func lambdaConfig(cfg config.Config) config.Config {
	cfg.OutputDir = underScratch(cfg.OutputDir)
	cfg.AuditLogPath = underScratch(cfg.AuditLogPath)
	if cfg.ArchiveStore == "local" {
		cfg.LocalStoreDir = underScratch(cfg.LocalStoreDir)
	}
	return cfg
}

func underScratch(path string) string {
	if strings.HasPrefix(filepath.Clean(path), lambdaScratch+"/") {
		return path
	}
	return filepath.Join(lambdaScratch, filepath.Clean("/"+path))
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return errorResponse("Erreur serveur : initialisation impossible"), initErr
	}
	if ginLambda == nil {
		return errorResponse("Erreur serveur : routeur non initialisé"), nil
	}
	return ginLambda.ProxyWithContext(ctx, req)
}

func errorResponse(message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": "internal_error", "message": message},
	})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
