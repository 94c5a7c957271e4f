package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

type deliveryDocument struct {
	RunID          string    `bson:"run_id"`
	RecipientEmail string    `bson:"recipient_email"`
	Subject        string    `bson:"subject"`
	ReportDate     time.Time `bson:"report_date"`
	AttachmentName string    `bson:"attachment_name"`
	Status         string    `bson:"status"`
	ErrorClass     string    `bson:"error_class,omitempty"`
	ErrorMessage   string    `bson:"error_message,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// DeliveryLogRepository is the append-only log of send attempts. It exposes
// no update or delete.
type DeliveryLogRepository struct {
	coll *mongo.Collection
}

// LogDelivery appends one entry.
func (r *DeliveryLogRepository) LogDelivery(ctx context.Context, entry models.DeliveryLogEntry) error {
	doc := deliveryDocument{
		RunID:          entry.RunID,
		RecipientEmail: entry.RecipientEmail,
		Subject:        entry.Subject,
		ReportDate:     models.DateOf(entry.ReportDate),
		AttachmentName: entry.AttachmentName,
		Status:         string(entry.Status),
		ErrorClass:     string(entry.ErrorClass),
		ErrorMessage:   entry.ErrorMessage,
		CreatedAt:      entry.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert delivery log: %w", err)
	}
	return nil
}

// ListByReportDate returns the entries of one report date in insertion order.
func (r *DeliveryLogRepository) ListByReportDate(ctx context.Context, date time.Time) ([]models.DeliveryLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"report_date": models.DateOf(date)}, opts)
	if err != nil {
		return nil, fmt.Errorf("find delivery log: %w", err)
	}
	defer cur.Close(ctx)

	var docs []deliveryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode delivery log: %w", err)
	}

	out := make([]models.DeliveryLogEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.DeliveryLogEntry{
			RunID:          d.RunID,
			RecipientEmail: d.RecipientEmail,
			Subject:        d.Subject,
			ReportDate:     models.DateOf(d.ReportDate.UTC()),
			AttachmentName: d.AttachmentName,
			Status:         models.DeliveryStatus(d.Status),
			ErrorClass:     models.ErrorClass(d.ErrorClass),
			ErrorMessage:   d.ErrorMessage,
			CreatedAt:      d.CreatedAt,
		})
	}
	return out, nil
}
