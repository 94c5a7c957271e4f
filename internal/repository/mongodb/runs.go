package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

type runDocument struct {
	ReportType     string    `bson:"report_type"`
	LastReportDate time.Time `bson:"last_report_date"`
	RunID          string    `bson:"run_id"`
	CompletedAt    time.Time `bson:"completed_at"`
}

// RunStateRepository remembers the last report date successfully distributed
// per report type.
type RunStateRepository struct {
	coll *mongo.Collection
}

// LastSentDate returns the last distributed report date, or the zero time.
func (r *RunStateRepository) LastSentDate(ctx context.Context, reportType string) (time.Time, error) {
	var doc runDocument
	err := r.coll.FindOne(ctx, bson.M{"report_type": reportType}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("find run state: %w", err)
	}
	return models.DateOf(doc.LastReportDate.UTC()), nil
}

// MarkSent records reportDate as distributed unless a later date already is.
func (r *RunStateRepository) MarkSent(ctx context.Context, reportType string, reportDate time.Time, runID string) error {
	update := bson.M{
		"$max": bson.M{"last_report_date": models.DateOf(reportDate)},
		"$set": bson.M{"run_id": runID, "completed_at": time.Now().UTC()},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"report_type": reportType}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mark run sent: %w", err)
	}
	return nil
}
