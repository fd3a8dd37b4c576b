package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loan application statuses.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "FAILED"
)

// LoanApplication represents a loan application document in the MongoDB database.
// CheckoutRequestID is empty until an STK push has been initiated for the loan;
// once set it is unique across all loans.
type LoanApplication struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name" validate:"required"`
	Phone             string             `bson:"phone" json:"phone" validate:"required"`
	IDNumber          string             `bson:"id_number" json:"idNumber" validate:"required"`
	LoanType          string             `bson:"loan_type" json:"loanType" validate:"required"`
	LoanAmount        int                `bson:"loan_amount" json:"loanAmount"`
	VerificationFee   int                `bson:"verification_fee" json:"verificationFee"`
	Status            string             `bson:"status" json:"status"`
	TrackingID        string             `bson:"tracking_id" json:"trackingId"`
	MpesaMessage      string             `bson:"mpesa_message,omitempty" json:"mpesaMessage,omitempty"`
	CheckoutRequestID string             `bson:"checkout_request_id,omitempty" json:"checkoutRequestID,omitempty"`
	ApplicationDate   time.Time          `bson:"application_date" json:"applicationDate"`
}
