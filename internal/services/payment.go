package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/tracker"
)

// M-Pesa result codes with a dedicated status mapping; every other code
// maps to FAILED.
const (
	resultCodeSuccess   = 0
	resultCodeCancelled = 1032
)

// StkGateway is the outbound payment boundary consumed by PaymentService.
type StkGateway interface {
	InitiateStkPush(ctx context.Context, phone string, amount int) (string, error)
}

// PaymentService drives the STK push request/callback cycle for a loan.
// The loan record and the status tracker are updated together inside a
// critical section scoped to the checkout identifier, so a status read
// never observes a half-applied callback.
type PaymentService struct {
	repo     repository.LoanRepository
	gateway  StkGateway
	statuses tracker.Tracker

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPaymentService(repo repository.LoanRepository, gateway StkGateway, statuses tracker.Tracker) *PaymentService {
	return &PaymentService{
		repo:     repo,
		gateway:  gateway,
		statuses: statuses,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one checkout identifier. Locks are
// retained for the life of the process, like tracker entries.
func (s *PaymentService) lockFor(checkoutRequestID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[checkoutRequestID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[checkoutRequestID] = lock
	}
	return lock
}

// InitiatePayment sends an STK push for the loan with the given tracking ID.
// Not idempotent: a second call for the same loan creates a second gateway
// transaction and overwrites the checkout identifier, orphaning the tracker
// entry from the first call.
func (s *PaymentService) InitiatePayment(ctx context.Context, trackingID, phone string, amount int) (string, error) {
	loan, err := s.repo.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return "", err
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	log.Printf("Initiating STK Push for phone %s, loan %s", normalized, loan.TrackingID)

	checkoutRequestID, err := s.gateway.InitiateStkPush(ctx, normalized, amount)
	if err != nil {
		log.Printf("STK Push failed for loan %s: %v", trackingID, err)
		return "", err
	}

	lock := s.lockFor(checkoutRequestID)
	lock.Lock()
	defer lock.Unlock()

	loan.Status = models.StatusPending
	loan.CheckoutRequestID = checkoutRequestID
	if err := s.repo.Save(ctx, loan); err != nil {
		return "", err
	}
	if err := s.statuses.Set(ctx, checkoutRequestID, tracker.StatePending, "STK Push sent"); err != nil {
		log.Printf("Failed to track payment status for %s: %v", checkoutRequestID, err)
	}

	log.Printf("STK Push initiated for loan %s, CheckoutRequestID: %s", loan.TrackingID, checkoutRequestID)
	return checkoutRequestID, nil
}

// ProcessCallback applies a gateway callback to the loan record and the
// status tracker. A callback for an unknown checkout identifier is logged
// and acknowledged; the provider expects the acknowledgment to succeed
// regardless.
func (s *PaymentService) ProcessCallback(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc string) error {
	lock := s.lockFor(checkoutRequestID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := s.repo.FindByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("Loan not found for CheckoutRequestID: %s", checkoutRequestID)
			return nil
		}
		return err
	}

	var state string
	switch resultCode {
	case resultCodeSuccess:
		loan.Status = models.StatusPaid
		state = tracker.StateSuccess
		log.Printf("Payment successful for loan %s", loan.TrackingID)
	case resultCodeCancelled:
		loan.Status = models.StatusCancelled
		state = tracker.StateCancelled
		log.Printf("Payment cancelled for loan %s", loan.TrackingID)
	default:
		loan.Status = models.StatusFailed
		state = tracker.StateFailed
		log.Printf("Payment failed for loan %s: code %d, %s", loan.TrackingID, resultCode, resultDesc)
	}
	loan.MpesaMessage = resultDesc

	if err := s.repo.Save(ctx, loan); err != nil {
		return err
	}
	if err := s.statuses.Set(ctx, checkoutRequestID, state, resultDesc); err != nil {
		log.Printf("Failed to track payment status for %s: %v", checkoutRequestID, err)
	}
	return nil
}

// GetStatus reports the persisted loan status for a checkout identifier.
// An unknown identifier yields a synthetic error body, not a failure.
func (s *PaymentService) GetStatus(ctx context.Context, checkoutRequestID string) (status, message string, err error) {
	lock := s.lockFor(checkoutRequestID)
	lock.Lock()
	defer lock.Unlock()

	loan, err := s.repo.FindByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "error", "Loan not found", nil
		}
		return "", "", err
	}
	return loan.Status, "Status fetched successfully", nil
}
