package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/services"
)

type LoanHandler struct {
	service *services.LoanService
}

func NewLoanHandler(service *services.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// Apply creates a loan application and returns the stored record,
// including the generated tracking ID, loan amount and verification fee.
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var application models.LoanApplication
	if err := json.NewDecoder(r.Body).Decode(&application); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	created, err := h.service.Apply(r.Context(), &application)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid application: " + verrs.Error(),
			})
			return
		}
		log.Printf("Failed to create loan application: %v", err)
		http.Error(w, `{"error":"Failed to create loan application"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, created)
}

// GetAll returns every stored loan application.
func (h *LoanHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.List(r.Context())
	if err != nil {
		log.Printf("Failed to fetch loans: %v", err)
		http.Error(w, `{"error":"Failed to fetch loans"}`, http.StatusInternalServerError)
		return
	}

	if loans == nil {
		loans = []models.LoanApplication{}
	}
	writeJSON(w, http.StatusOK, loans)
}

// Delete removes a loan by its tracking ID.
func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	trackingID := mux.Vars(r)["trackingId"]

	if err := h.service.Delete(r.Context(), trackingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":      "Loan not found",
				"trackingId": trackingID,
			})
			return
		}
		log.Printf("Failed to delete loan %s: %v", trackingID, err)
		http.Error(w, `{"error":"Failed to delete loan"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Loan deleted successfully",
		"trackingId": trackingID,
	})
}
