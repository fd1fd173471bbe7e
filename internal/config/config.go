package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the API and the worker.
type Config struct {
	Port     string
	RunLocal bool
	LogLevel string

	Tables Tables

	OrdersQueueURL      string // empty disables order.created events
	InvoiceFunctionName string
	EmailFunctionName   string
	MetricsNamespace    string

	TokenTTL            time.Duration
	IdempotencyTTL      time.Duration
	CollaboratorTimeout time.Duration
}

// Tables holds the DynamoDB table names.
type Tables struct {
	Shops              string
	Orders             string
	OrderNumbers       string
	OrderTokens        string
	BankAccounts       string
	EmailConfigs       string
	PaymentMethods     string
	ShopPaymentMethods string
	Idempotency        string
}

// Load reads the configuration from the environment. With RUN_LOCAL=true a .env file
// in the working directory is loaded first, without overriding variables already set.
func Load() (Config, error) {
	runLocal := os.Getenv("RUN_LOCAL") == "true"
	if runLocal {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	tokenTTL, err := durationOr("TOKEN_TTL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	idempotencyTTL, err := durationOr("IDEMPOTENCY_TTL", 48*time.Hour)
	if err != nil {
		return Config{}, err
	}
	collaboratorTimeout, err := durationOr("COLLABORATOR_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	port := getOr("PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		return Config{}, fmt.Errorf("PORT must be number: %w", err)
	}

	cfg := Config{
		Port:     port,
		RunLocal: runLocal,
		LogLevel: getOr("LOG_LEVEL", "info"),

		Tables: Tables{
			Shops:              getOr("SHOPS_TABLE", "shops"),
			Orders:             getOr("ORDERS_TABLE", "orders"),
			OrderNumbers:       getOr("ORDER_NUMBERS_TABLE", "order_numbers"),
			OrderTokens:        getOr("ORDER_TOKENS_TABLE", "order_tokens"),
			BankAccounts:       getOr("BANK_ACCOUNTS_TABLE", "bank_accounts"),
			EmailConfigs:       getOr("EMAIL_CONFIGS_TABLE", "resend_configs"),
			PaymentMethods:     getOr("PAYMENT_METHODS_TABLE", "payment_methods"),
			ShopPaymentMethods: getOr("SHOP_PAYMENT_METHODS_TABLE", "shop_payment_methods"),
			Idempotency:        getOr("IDEMPOTENCY_TABLE", "idempotency"),
		},

		OrdersQueueURL:      os.Getenv("ORDERS_QUEUE_URL"),
		InvoiceFunctionName: getOr("INVOICE_FUNCTION_NAME", "generate-invoice"),
		EmailFunctionName:   getOr("EMAIL_FUNCTION_NAME", "send-order-confirmation"),
		MetricsNamespace:    getOr("METRICS_NAMESPACE", "HeatingOilCheckout"),

		TokenTTL:            tokenTTL,
		IdempotencyTTL:      idempotencyTTL,
		CollaboratorTimeout: collaboratorTimeout,
	}
	return cfg, nil
}

func getOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
