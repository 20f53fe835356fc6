package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("SERVER_PORT", "8080")
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_NAME", "stayhaven_test")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("PAYMENT_PROVIDER", "paystack")
	os.Setenv("PAYSTACK_SECRET_KEY", "sk_test_xxx")
	os.Setenv("PLATFORM_FEE_RATE", "0.10")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PAYMENT_PROVIDER")
		os.Unsetenv("PAYSTACK_SECRET_KEY")
		os.Unsetenv("PLATFORM_FEE_RATE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.NotNil(t, cfg)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "stayhaven_test", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "paystack", cfg.PaymentProvider)
	assert.Equal(t, "0.1", cfg.PlatformFeeRate.String())
}

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("DEFAULT_CURRENCY")
	os.Unsetenv("PLATFORM_FEE_RATE")
	os.Unsetenv("PAYSTACK_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, "NGN", cfg.DefaultCurrency)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.NotEmpty(t, cfg.PlatformUserID)
}

func TestValidateGateway(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	cfg.PaymentProvider = "paystack"
	cfg.PaystackSecretKey = ""
	assert.Error(t, cfg.ValidateGateway())

	cfg.PaystackSecretKey = "sk_test_xxx"
	assert.NoError(t, cfg.ValidateGateway())

	cfg.PaymentProvider = "flutterwave"
	cfg.FlutterwaveSecretKey = "FLWSECK_TEST"
	cfg.FlutterwaveWebhookHash = "hash"
	assert.NoError(t, cfg.ValidateGateway())

	cfg.PaymentProvider = "flutterwave_oauth"
	cfg.FlutterwaveClientID = ""
	assert.Error(t, cfg.ValidateGateway())

	cfg.PaymentProvider = "something-else"
	assert.Error(t, cfg.ValidateGateway())
}
