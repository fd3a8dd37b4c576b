package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/tracker"
)

// Generation bounds for synthetic loan terms.
const (
	minLoanAmount      = 10000
	maxLoanAmount      = 23000
	minVerificationFee = 186
	maxVerificationFee = 199
)

// LoanService creates, lists and deletes loan applications.
type LoanService struct {
	repo     repository.LoanRepository
	statuses tracker.Tracker
	validate *validator.Validate
}

func NewLoanService(repo repository.LoanRepository, statuses tracker.Tracker) *LoanService {
	return &LoanService{
		repo:     repo,
		statuses: statuses,
		validate: validator.New(),
	}
}

// Apply stores a new loan application with generated loan terms, a fresh
// tracking ID and status PENDING.
func (s *LoanService) Apply(ctx context.Context, application *models.LoanApplication) (*models.LoanApplication, error) {
	if err := s.validate.Struct(application); err != nil {
		return nil, err
	}

	application.LoanAmount = minLoanAmount + rand.Intn(maxLoanAmount-minLoanAmount+1)
	application.VerificationFee = minVerificationFee + rand.Intn(maxVerificationFee-minVerificationFee+1)
	application.Status = models.StatusPending
	application.TrackingID = newTrackingID()
	application.CheckoutRequestID = ""
	application.ApplicationDate = time.Now()

	return s.repo.Create(ctx, application)
}

// newTrackingID generates a human-facing identifier, e.g. LON-C123456L9876543.
func newTrackingID() string {
	return fmt.Sprintf("LON-C%dL%d", 100000+rand.Intn(900000), 1000000+rand.Intn(9000000))
}

func (s *LoanService) List(ctx context.Context) ([]models.LoanApplication, error) {
	return s.repo.FindAll(ctx)
}

// Delete removes the loan with the given tracking ID and, when an STK push
// had been initiated for it, purges its payment status entry.
func (s *LoanService) Delete(ctx context.Context, trackingID string) error {
	loan, err := s.repo.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, loan); err != nil {
		return err
	}

	if loan.CheckoutRequestID != "" {
		if err := s.statuses.Remove(ctx, loan.CheckoutRequestID); err != nil {
			log.Printf("Failed to remove payment status for %s: %v", loan.CheckoutRequestID, err)
		}
	}

	log.Printf("Loan deleted: trackingId=%s", trackingID)
	return nil
}
