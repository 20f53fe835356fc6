package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func newFlutterwaveForTest(t *testing.T, handler http.HandlerFunc) *Flutterwave {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		FlutterwaveSecretKey:   "FLWSECK_TEST",
		FlutterwaveWebhookHash: "hash_value",
		FlutterwaveBaseURL:     server.URL,
	}
	return NewFlutterwave(cfg, logger.New())
}

func TestFlutterwaveInitiateCharge(t *testing.T) {
	gw := newFlutterwaveForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, decodeJSONBody(r, &payload))
		assert.Equal(t, "dep-1", payload["tx_ref"])
		assert.Equal(t, "750.25", payload["amount"])

		w.Write([]byte(`{"status":"success","data":{"link":"https://checkout.flutterwave.com/pay/xyz"}}`))
	})

	handle, err := gw.InitiateCharge(context.Background(), ChargeRequest{
		Amount:      decimal.RequireFromString("750.25"),
		Currency:    "NGN",
		CustomerRef: "guest@example.com",
		ExternalRef: "dep-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "flutterwave", handle.Provider)
	assert.Equal(t, "https://checkout.flutterwave.com/pay/xyz", handle.AuthorizationURL)
}

func TestFlutterwaveErrorEnvelopeIsRejected(t *testing.T) {
	gw := newFlutterwaveForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Currency not supported"}`))
	})

	_, err := gw.InitiateCharge(context.Background(), ChargeRequest{
		Amount:      decimal.NewFromInt(10),
		Currency:    "XXX",
		ExternalRef: "dep-2",
	})
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Currency not supported")
}

func TestFlutterwaveVerifyByReference(t *testing.T) {
	gw := newFlutterwaveForTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
		assert.Equal(t, "dep-3", r.URL.Query().Get("tx_ref"))
		w.Write([]byte(`{"status":"success","data":{"id":7,"status":"successful","amount":120.5,"currency":"NGN"}}`))
	})

	result, err := gw.VerifyByReference(context.Background(), "dep-3")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, "7", result.GatewayRef)
}

func TestFlutterwaveVerifyWebhookHash(t *testing.T) {
	cfg := &config.Config{FlutterwaveWebhookHash: "hash_value"}
	gw := NewFlutterwave(cfg, logger.New())

	headers := http.Header{}
	headers.Set("verif-hash", "hash_value")
	assert.NoError(t, gw.VerifyWebhook(headers, nil))

	headers.Set("verif-hash", "wrong")
	assert.ErrorIs(t, gw.VerifyWebhook(headers, nil), ErrInvalidSignature)

	assert.ErrorIs(t, gw.VerifyWebhook(http.Header{}, nil), ErrInvalidSignature)
}

func TestFlutterwaveParseWebhookTransferFallsBackToReference(t *testing.T) {
	cfg := &config.Config{}
	gw := NewFlutterwave(cfg, logger.New())

	body := []byte(`{"event":"transfer.completed","data":{"id":12,"reference":"wd-1","amount":300,"currency":"NGN","status":"SUCCESSFUL"}}`)
	event, err := gw.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "wd-1", event.ExternalRef)
	assert.Equal(t, "12", event.GatewayRef)
	assert.Equal(t, StatusSuccess, event.Status)
}

func newFlutterwaveOAuthForTest(t *testing.T, tokenHandler, apiHandler http.HandlerFunc) *FlutterwaveOAuth {
	t.Helper()
	tokenServer := httptest.NewServer(tokenHandler)
	t.Cleanup(tokenServer.Close)
	apiServer := httptest.NewServer(apiHandler)
	t.Cleanup(apiServer.Close)

	cfg := &config.Config{
		FlutterwaveBaseURL:      apiServer.URL,
		FlutterwaveClientID:     "client-id",
		FlutterwaveClientSecret: "client-secret",
		FlutterwaveTokenURL:     tokenServer.URL,
	}
	return NewFlutterwaveOAuth(cfg, logger.New())
}

func TestFlutterwaveOAuthFetchesAndCachesToken(t *testing.T) {
	var tokenCalls int64
	gw := newFlutterwaveOAuthForTest(t,
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&tokenCalls, 1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			assert.Equal(t, "client-id", r.FormValue("client_id"))
			w.Write([]byte(`{"access_token":"tok_abc","expires_in":600}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok_abc", r.Header.Get("Authorization"))
			w.Write([]byte(`{"status":"success","data":{"link":"https://checkout/pay"}}`))
		},
	)

	for i := 0; i < 3; i++ {
		_, err := gw.InitiateCharge(context.Background(), ChargeRequest{
			Amount:      decimal.NewFromInt(100),
			Currency:    "NGN",
			ExternalRef: "dep-oauth",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))
}

func TestFlutterwaveOAuthTokenEndpointDown(t *testing.T) {
	gw := newFlutterwaveOAuthForTest(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("API must not be called without a token")
		},
	)

	_, err := gw.InitiateCharge(context.Background(), ChargeRequest{
		Amount:      decimal.NewFromInt(100),
		Currency:    "NGN",
		ExternalRef: "dep-oauth-2",
	})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFlutterwaveOAuthVerifyWebhook(t *testing.T) {
	cfg := &config.Config{FlutterwaveClientSecret: "client-secret"}
	gw := NewFlutterwaveOAuth(cfg, logger.New())
	assert.Equal(t, "flutterwave_oauth", gw.Name())

	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"dep-8"}}`)
	mac := hmac.New(sha256.New, []byte("client-secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	headers := http.Header{}
	headers.Set("flutterwave-signature", signature)
	assert.NoError(t, gw.VerifyWebhook(headers, body))

	headers.Set("flutterwave-signature", "deadbeef")
	assert.ErrorIs(t, gw.VerifyWebhook(headers, body), ErrInvalidSignature)
}
