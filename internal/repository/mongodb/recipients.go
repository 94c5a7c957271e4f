package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

type recipientDocument struct {
	Email       string   `bson:"email"`
	Name        string   `bson:"name"`
	Role        string   `bson:"role"`
	Phone       string   `bson:"phone,omitempty"`
	Active      bool     `bson:"active"`
	ReportTypes []string `bson:"report_types"`
}

// RecipientRepository stores report recipients.
type RecipientRepository struct {
	coll *mongo.Collection
}

// ActiveRecipients returns the active recipients subscribed to reportType,
// ordered by email.
func (r *RecipientRepository) ActiveRecipients(ctx context.Context, reportType string) ([]models.Recipient, error) {
	filter := bson.M{"active": true, "report_types": reportType}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find recipients: %w", err)
	}
	defer cur.Close(ctx)

	var docs []recipientDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recipients: %w", err)
	}

	out := make([]models.Recipient, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Recipient{
			Email:       d.Email,
			Name:        d.Name,
			Role:        d.Role,
			Phone:       d.Phone,
			Active:      d.Active,
			ReportTypes: d.ReportTypes,
		})
	}
	return out, nil
}

// UpsertRecipient creates or updates a recipient keyed by email.
func (r *RecipientRepository) UpsertRecipient(ctx context.Context, rcpt models.Recipient) error {
	doc := recipientDocument{
		Email:       rcpt.Email,
		Name:        rcpt.Name,
		Role:        rcpt.Role,
		Phone:       rcpt.Phone,
		Active:      rcpt.Active,
		ReportTypes: rcpt.ReportTypes,
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"email": rcpt.Email}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert recipient %s: %w", rcpt.Email, err)
	}
	return nil
}

// Deactivate stops all deliveries to the recipient.
func (r *RecipientRepository) Deactivate(ctx context.Context, email string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("deactivate recipient %s: %w", email, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", models.ErrRecipientNotFound, email)
	}
	return nil
}
