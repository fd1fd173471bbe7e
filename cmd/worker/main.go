package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/app"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/config"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/logging"
)

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

	// the worker never creates orders, so the service it drives publishes nothing
	cfg.OrdersQueueURL = ""
	processor := NewProcessor(
		app.NewCheckoutService(cfg, clients, logger),
		app.NewIdempotencyStore(cfg, clients),
		logger,
	)

	// If RUN_LOCAL=true, we can optionally simulate a single SQS event for local testing.
	if cfg.RunLocal {
		// Local testing helper: simulate an event using environment variables
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.created","order_id":"local-order-1","checkout_mode":"manual"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{
					MessageId: "local-1",
					Body:      testBody,
				},
			},
		}
		resp, err := processor.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatalf("local handler error: %v (failures: %d)", err, len(resp.BatchItemFailures))
		}
		return
	}

	lambda.Start(processor.Handle)
}
