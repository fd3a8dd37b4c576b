package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/services"
	"github.com/briankipchirchir/kopesha-backend/internal/tracker"
)

// stubGateway satisfies services.StkGateway without network calls.
type stubGateway struct {
	checkoutRequestID string
	err               error
	calls             int
}

func (g *stubGateway) InitiateStkPush(ctx context.Context, phone string, amount int) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.checkoutRequestID, nil
}

type testEnv struct {
	router   *mux.Router
	repo     *repository.MemoryLoanRepository
	statuses *tracker.MemoryTracker
	gateway  *stubGateway
	loans    *services.LoanService
}

func newTestEnv() *testEnv {
	repo := repository.NewMemoryLoanRepository()
	statuses := tracker.NewMemoryTracker()
	gateway := &stubGateway{checkoutRequestID: "ws_CO_1"}

	loanService := services.NewLoanService(repo, statuses)
	paymentService := services.NewPaymentService(repo, gateway, statuses)

	loanHandler := NewLoanHandler(loanService)
	paymentHandler := NewPaymentHandler(paymentService)

	router := mux.NewRouter()
	router.HandleFunc("/apply", loanHandler.Apply).Methods("POST")
	router.HandleFunc("/stk-push", paymentHandler.StkPush).Methods("POST")
	router.HandleFunc("/mpesa/callback", paymentHandler.Callback).Methods("POST")
	router.HandleFunc("/mpesa/status/{checkoutRequestID}", paymentHandler.Status).Methods("GET")
	router.HandleFunc("/all", loanHandler.GetAll).Methods("GET")
	router.HandleFunc("/delete/{trackingId}", loanHandler.Delete).Methods("DELETE")

	return &testEnv{
		router:   router,
		repo:     repo,
		statuses: statuses,
		gateway:  gateway,
		loans:    loanService,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) apply(t *testing.T) models.LoanApplication {
	t.Helper()

	w := e.do(t, http.MethodPost, "/apply", map[string]string{
		"name":     "A",
		"phone":    "0712345678",
		"idNumber": "X",
		"loanType": "personal",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created models.LoanApplication
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	return created
}

func TestApplyHandler(t *testing.T) {
	env := newTestEnv()

	created := env.apply(t)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Regexp(t, `^LON-C\d{6}L\d{7}$`, created.TrackingID)
	assert.GreaterOrEqual(t, created.LoanAmount, 10000)
	assert.LessOrEqual(t, created.LoanAmount, 23000)
	assert.GreaterOrEqual(t, created.VerificationFee, 186)
	assert.LessOrEqual(t, created.VerificationFee, 199)
}

func TestApplyHandler_BadBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/apply", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyHandler_MissingFields(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/apply", map[string]string{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetAllHandler(t *testing.T) {
	env := newTestEnv()
	env.apply(t)
	env.apply(t)

	w := env.do(t, http.MethodGet, "/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loans []models.LoanApplication
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loans))
	assert.Len(t, loans, 2)
}

func TestGetAllHandler_Empty(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestDeleteHandler(t *testing.T) {
	env := newTestEnv()
	created := env.apply(t)

	w := env.do(t, http.MethodDelete, "/delete/"+created.TrackingID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Loan deleted successfully", body["message"])
	assert.Equal(t, created.TrackingID, body["trackingId"])

	_, err := env.repo.FindByTrackingID(context.Background(), created.TrackingID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteHandler_NotFound(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodDelete, "/delete/LON-C000000L0000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Loan not found", body["error"])
}
