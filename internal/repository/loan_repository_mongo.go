package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/briankipchirchir/kopesha-backend/internal/models"
)

// MongoLoanRepository stores loan applications in a MongoDB collection.
type MongoLoanRepository struct {
	collection *mongo.Collection
}

func NewMongoLoanRepository(db *mongo.Database) *MongoLoanRepository {
	return &MongoLoanRepository{collection: db.Collection("loans")}
}

// EnsureIndexes creates the indexes the lookup paths depend on. The sparse
// unique index on checkout_request_id enforces that a checkout identifier
// maps to at most one loan.
func (r *MongoLoanRepository) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.M{"tracking_id": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.M{"checkout_request_id": 1},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.M{"application_date": -1}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		log.Printf("Failed to create loan indexes: %v", err)
		return fmt.Errorf("failed to create loan indexes: %v", err)
	}
	return nil
}

func (r *MongoLoanRepository) Create(ctx context.Context, loan *models.LoanApplication) (*models.LoanApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	loan.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, loan); err != nil {
		log.Printf("Failed to insert loan %s: %v", loan.TrackingID, err)
		return nil, fmt.Errorf("failed to insert loan: %v", err)
	}
	return loan, nil
}

func (r *MongoLoanRepository) FindByTrackingID(ctx context.Context, trackingID string) (*models.LoanApplication, error) {
	return r.findOne(ctx, bson.M{"tracking_id": trackingID})
}

func (r *MongoLoanRepository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.LoanApplication, error) {
	return r.findOne(ctx, bson.M{"checkout_request_id": checkoutRequestID})
}

func (r *MongoLoanRepository) findOne(ctx context.Context, filter bson.M) (*models.LoanApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var loan models.LoanApplication
	if err := r.collection.FindOne(ctx, filter).Decode(&loan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		log.Printf("Failed to fetch loan %v: %v", filter, err)
		return nil, fmt.Errorf("failed to fetch loan: %v", err)
	}
	return &loan, nil
}

func (r *MongoLoanRepository) FindAll(ctx context.Context) ([]models.LoanApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.M{"application_date": -1}))
	if err != nil {
		log.Printf("Failed to fetch loans: %v", err)
		return nil, fmt.Errorf("failed to fetch loans: %v", err)
	}
	defer cur.Close(ctx)

	var loans []models.LoanApplication
	if err := cur.All(ctx, &loans); err != nil {
		log.Printf("Failed to decode loans: %v", err)
		return nil, fmt.Errorf("failed to decode loans: %v", err)
	}
	return loans, nil
}

func (r *MongoLoanRepository) Save(ctx context.Context, loan *models.LoanApplication) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": loan.ID}, loan)
	if err != nil {
		log.Printf("Failed to save loan %s: %v", loan.TrackingID, err)
		return fmt.Errorf("failed to save loan: %v", err)
	}
	return nil
}

func (r *MongoLoanRepository) Delete(ctx context.Context, loan *models.LoanApplication) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": loan.ID})
	if err != nil {
		log.Printf("Failed to delete loan %s: %v", loan.TrackingID, err)
		return fmt.Errorf("failed to delete loan: %v", err)
	}
	return nil
}
