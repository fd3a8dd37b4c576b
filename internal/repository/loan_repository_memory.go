package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
)

// MemoryLoanRepository is an in-memory implementation of LoanRepository,
// keyed by tracking ID. Used in tests and for running without MongoDB.
type MemoryLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]models.LoanApplication
}

func NewMemoryLoanRepository() *MemoryLoanRepository {
	return &MemoryLoanRepository{
		loans: make(map[string]models.LoanApplication),
	}
}

func (r *MemoryLoanRepository) Create(ctx context.Context, loan *models.LoanApplication) (*models.LoanApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loan.ID = primitive.NewObjectID()
	r.loans[loan.TrackingID] = *loan
	return loan, nil
}

func (r *MemoryLoanRepository) FindByTrackingID(ctx context.Context, trackingID string) (*models.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loan, ok := r.loans[trackingID]
	if !ok {
		return nil, ErrNotFound
	}
	return &loan, nil
}

func (r *MemoryLoanRepository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loan := range r.loans {
		if loan.CheckoutRequestID != "" && loan.CheckoutRequestID == checkoutRequestID {
			found := loan
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryLoanRepository) FindAll(ctx context.Context) ([]models.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loans := make([]models.LoanApplication, 0, len(r.loans))
	for _, loan := range r.loans {
		loans = append(loans, loan)
	}
	return loans, nil
}

func (r *MemoryLoanRepository) Save(ctx context.Context, loan *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loans[loan.TrackingID] = *loan
	return nil
}

func (r *MemoryLoanRepository) Delete(ctx context.Context, loan *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.loans, loan.TrackingID)
	return nil
}
