package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// GatewayError is a failure reported by, or while talking to, the M-Pesa
// gateway. RawResponse carries the provider's response body for diagnostics
// when one was received.
type GatewayError struct {
	Op          string
	RawResponse string
	Err         error
}

func (e *GatewayError) Error() string {
	if e.RawResponse != "" {
		return fmt.Sprintf("mpesa %s failed: %v: %s", e.Op, e.Err, e.RawResponse)
	}
	return fmt.Sprintf("mpesa %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// MpesaGateway talks to the Daraja API. Each STK push re-authenticates;
// tokens are not cached.
type MpesaGateway struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	client         *http.Client
}

func NewMpesaGateway() *MpesaGateway {
	baseURL := os.Getenv("MPESA_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.safaricom.co.ke"
	}
	return &MpesaGateway{
		baseURL:        baseURL,
		consumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		consumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		shortcode:      os.Getenv("MPESA_SHORTCODE"),
		passkey:        os.Getenv("MPESA_PASSKEY"),
		callbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		client:         &http.Client{Timeout: 10 * time.Second},
	}
}

// ObtainToken exchanges the consumer key/secret for an OAuth access token.
func (g *MpesaGateway) ObtainToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", &GatewayError{Op: "token", Err: err}
	}
	req.SetBasicAuth(g.consumerKey, g.consumerSecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &GatewayError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Op: "token", Err: err}
	}

	var tokenRes struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenRes); err != nil {
		return "", &GatewayError{Op: "token", RawResponse: string(body), Err: err}
	}
	if tokenRes.AccessToken == "" {
		return "", &GatewayError{Op: "token", RawResponse: string(body), Err: fmt.Errorf("no access token returned")}
	}
	return tokenRes.AccessToken, nil
}

// InitiateStkPush sends a push-payment request for the given normalized
// phone and amount and returns the CheckoutRequestID issued by the gateway.
func (g *MpesaGateway) InitiateStkPush(ctx context.Context, phone string, amount int) (string, error) {
	accessToken, err := g.ObtainToken(ctx)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortcode + g.passkey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": g.shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            phone,
		"PartyB":            g.shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       g.callbackURL,
		"AccountReference":  "Loan Verification",
		"TransactionDesc":   "Verification Payment",
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", &GatewayError{Op: "stkpush", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &GatewayError{Op: "stkpush", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &GatewayError{Op: "stkpush", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Op: "stkpush", Err: err}
	}
	log.Printf("STK Push raw response: %s", string(body))

	var stkRes struct {
		CheckoutRequestID string `json:"CheckoutRequestID"`
	}
	if err := json.Unmarshal(body, &stkRes); err != nil {
		return "", &GatewayError{Op: "stkpush", RawResponse: string(body), Err: err}
	}
	if stkRes.CheckoutRequestID == "" {
		return "", &GatewayError{Op: "stkpush", RawResponse: string(body), Err: fmt.Errorf("no CheckoutRequestID returned")}
	}
	return stkRes.CheckoutRequestID, nil
}
