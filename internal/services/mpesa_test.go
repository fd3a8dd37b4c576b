package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(baseURL string) *MpesaGateway {
	return &MpesaGateway{
		baseURL:        baseURL,
		consumerKey:    "key",
		consumerSecret: "secret",
		shortcode:      "174379",
		passkey:        "passkey",
		callbackURL:    "https://example.com/mpesa/callback",
		client:         &http.Client{Timeout: 5 * time.Second},
	}
}

func TestObtainToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/oauth/v1/generate", r.URL.Path)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123", "expires_in": "3599"})
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	token, err := gateway.ObtainToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", token)
}

func TestObtainToken_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"errorMessage": "invalid credentials"})
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	_, err := gateway.ObtainToken(context.Background())
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "token", gwErr.Op)
	assert.Contains(t, gwErr.RawResponse, "invalid credentials")
}

func TestObtainToken_Unreachable(t *testing.T) {
	gateway := newTestGateway("http://127.0.0.1:1")
	_, err := gateway.ObtainToken(context.Background())

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "token", gwErr.Op)
	assert.Empty(t, gwErr.RawResponse)
}

func TestInitiateStkPush(t *testing.T) {
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResponseCode":      "0",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	checkoutRequestID, err := gateway.InitiateStkPush(context.Background(), "254712345678", 190)
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_191220191020363925", checkoutRequestID)

	assert.Equal(t, "174379", gotPayload["BusinessShortCode"])
	assert.Equal(t, "CustomerPayBillOnline", gotPayload["TransactionType"])
	assert.Equal(t, float64(190), gotPayload["Amount"])
	assert.Equal(t, "254712345678", gotPayload["PartyA"])
	assert.Equal(t, "254712345678", gotPayload["PhoneNumber"])
	assert.Equal(t, "174379", gotPayload["PartyB"])
	assert.Equal(t, "https://example.com/mpesa/callback", gotPayload["CallBackURL"])
	assert.Equal(t, "Loan Verification", gotPayload["AccountReference"])
	assert.Equal(t, "Verification Payment", gotPayload["TransactionDesc"])

	// Password is base64(shortcode + passkey + timestamp) with the same
	// timestamp carried in the payload.
	timestamp, _ := gotPayload["Timestamp"].(string)
	require.Len(t, timestamp, 14)
	_, err = time.Parse("20060102150405", timestamp)
	require.NoError(t, err)
	wantPassword := base64.StdEncoding.EncodeToString([]byte("174379" + "passkey" + timestamp))
	assert.Equal(t, wantPassword, gotPayload["Password"])
}

func TestInitiateStkPush_NoCheckoutRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"errorCode":    "400.002.02",
				"errorMessage": "Bad Request - Invalid Amount",
			})
		}
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	_, err := gateway.InitiateStkPush(context.Background(), "254712345678", 0)
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "stkpush", gwErr.Op)
	assert.Contains(t, gwErr.RawResponse, "Invalid Amount")
}

func TestInitiateStkPush_TokenFailureStopsPush(t *testing.T) {
	pushed := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"errorMessage": "invalid credentials"})
		default:
			pushed = true
		}
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	_, err := gateway.InitiateStkPush(context.Background(), "254712345678", 190)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "token", gwErr.Op)
	assert.False(t, pushed)
}
