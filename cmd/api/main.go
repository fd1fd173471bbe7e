package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/app"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/config"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/handlers"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/logging"
)

var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type", "idempotency-key"}

func setupRouter(svc handlers.CheckoutService, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// storefronts are served from arbitrary shop domains
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    allowedHeaders,
		ExposeHeaders:   []string{"Location"},
	}))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, svc, logger)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	r := setupRouter(app.NewCheckoutService(cfg, clients, logger), logger)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", "addr", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}
