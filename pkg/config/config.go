package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// JWT
	JWTSecret string

	// AWS S3 (webhook payload archive)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string

	// Payment gateway
	PaymentProvider         string // paystack | flutterwave | flutterwave_oauth
	PaystackSecretKey       string
	PaystackBaseURL         string
	FlutterwaveSecretKey    string
	FlutterwaveWebhookHash  string
	FlutterwaveBaseURL      string
	FlutterwaveClientID     string
	FlutterwaveClientSecret string
	FlutterwaveTokenURL     string

	// Wallet / escrow
	DefaultCurrency string
	PlatformFeeRate decimal.Decimal
	PlatformUserID  string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	feeRate, err := decimal.NewFromString(getEnv("PLATFORM_FEE_RATE", "0.10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_RATE: %w", err)
	}

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "stayhaven"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "stayhaven-webhook-archive"),

		PaymentProvider:         getEnv("PAYMENT_PROVIDER", "paystack"),
		PaystackSecretKey:       getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:         getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		FlutterwaveSecretKey:    getEnv("FLUTTERWAVE_SECRET_KEY", ""),
		FlutterwaveWebhookHash:  getEnv("FLUTTERWAVE_WEBHOOK_HASH", ""),
		FlutterwaveBaseURL:      getEnv("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com"),
		FlutterwaveClientID:     getEnv("FLUTTERWAVE_CLIENT_ID", ""),
		FlutterwaveClientSecret: getEnv("FLUTTERWAVE_CLIENT_SECRET", ""),
		FlutterwaveTokenURL:     getEnv("FLUTTERWAVE_TOKEN_URL", "https://idp.flutterwave.com/oauth2/token"),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "NGN"),
		PlatformFeeRate: feeRate,
		PlatformUserID:  getEnv("PLATFORM_USER_ID", "00000000-0000-0000-0000-000000000001"),
	}

	return config, nil
}

// ValidateGateway checks that credentials for the selected payment provider
// are present. Run once at startup so a misconfigured gateway fails fast
// instead of surfacing on the first charge.
func (c *Config) ValidateGateway() error {
	switch c.PaymentProvider {
	case "paystack":
		if c.PaystackSecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required when PAYMENT_PROVIDER=paystack")
		}
	case "flutterwave":
		if c.FlutterwaveSecretKey == "" {
			return fmt.Errorf("FLUTTERWAVE_SECRET_KEY is required when PAYMENT_PROVIDER=flutterwave")
		}
		if c.FlutterwaveWebhookHash == "" {
			return fmt.Errorf("FLUTTERWAVE_WEBHOOK_HASH is required when PAYMENT_PROVIDER=flutterwave")
		}
	case "flutterwave_oauth":
		if c.FlutterwaveClientID == "" || c.FlutterwaveClientSecret == "" {
			return fmt.Errorf("FLUTTERWAVE_CLIENT_ID and FLUTTERWAVE_CLIENT_SECRET are required when PAYMENT_PROVIDER=flutterwave_oauth")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER: %s", c.PaymentProvider)
	}
	if c.PlatformFeeRate.IsNegative() || c.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
