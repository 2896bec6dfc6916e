package main

import (
	"context"

	"example/chessgpt-api/app"
	"example/chessgpt-api/app/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start). The engine lives as long
// as the container does; there is no shutdown hook to close it.
func init() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := app.ConfigureLogging(cfg.Logs); err != nil {
		logrus.Fatal(err)
	}

	engine, err := app.NewUCIEngine(cfg.Engine)
	if err != nil {
		logrus.Fatalf("failed to start engine: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	analyzer := app.NewAnalyzerFromConfig(engine, cfg.Engine)
	router := app.NewRouter(analyzer, cfg, engine.Name())

	ginLambda = ginadapter.New(router)
}

// Handler is the Lambda entrypoint for API Gateway REST/HTTP API (proxy integration)
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
