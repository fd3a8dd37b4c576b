package repository

import (
	"context"
	"errors"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
)

// ErrNotFound is returned by lookups that miss.
var ErrNotFound = errors.New("loan not found")

// LoanRepository is the persistence contract for loan applications.
// Single-record atomicity is all that implementations guarantee.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.LoanApplication) (*models.LoanApplication, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*models.LoanApplication, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.LoanApplication, error)
	FindAll(ctx context.Context) ([]models.LoanApplication, error)
	Save(ctx context.Context, loan *models.LoanApplication) error
	Delete(ctx context.Context, loan *models.LoanApplication) error
}
