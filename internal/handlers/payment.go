package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/services"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type StkPushRequest struct {
	TrackingID string `json:"trackingId"`
	Phone      string `json:"phone"`
	Amount     int    `json:"amount"`
}

type stkCallbackPayload struct {
	Body *struct {
		StkCallback *struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// StkPush initiates a verification-fee push payment for a loan.
func (h *PaymentHandler) StkPush(w http.ResponseWriter, r *http.Request) {
	var req StkPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	checkoutRequestID, err := h.service.InitiatePayment(r.Context(), req.TrackingID, req.Phone, req.Amount)
	if err != nil {
		log.Printf("STK Push failed for trackingId %s: %v", req.TrackingID, err)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "Loan not found for trackingId: " + req.TrackingID,
			})
		case errors.Is(err, services.ErrInvalidPhone):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": fmt.Sprintf("STK Push failed: %v", err),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":           "STK Push sent successfully",
		"checkoutRequestID": checkoutRequestID,
	})
}

// Callback receives the asynchronous payment result from the gateway.
// Only a structurally malformed body is a client error; an unknown
// checkout identifier is still acknowledged with 200.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var payload stkCallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"Invalid callback payload"}`, http.StatusBadRequest)
		return
	}
	if payload.Body == nil {
		http.Error(w, `{"error":"Invalid callback payload: missing Body"}`, http.StatusBadRequest)
		return
	}
	if payload.Body.StkCallback == nil {
		http.Error(w, `{"error":"Invalid callback payload: missing stkCallback"}`, http.StatusBadRequest)
		return
	}
	cb := payload.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		http.Error(w, `{"error":"Missing CheckoutRequestID"}`, http.StatusBadRequest)
		return
	}

	if err := h.service.ProcessCallback(r.Context(), cb.CheckoutRequestID, cb.ResultCode, cb.ResultDesc); err != nil {
		log.Printf("Error processing callback for %s: %v", cb.CheckoutRequestID, err)
		http.Error(w, `{"error":"Callback processing failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Callback processed"})
}

// Status reports the persisted loan status for a checkout identifier.
// Always 200, even when the loan is unknown.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	checkoutRequestID := mux.Vars(r)["checkoutRequestID"]

	status, message, err := h.service.GetStatus(r.Context(), checkoutRequestID)
	if err != nil {
		log.Printf("Failed to fetch status for %s: %v", checkoutRequestID, err)
		http.Error(w, `{"error":"Failed to fetch payment status"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
