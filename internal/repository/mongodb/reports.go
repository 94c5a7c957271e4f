package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

type reportDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SiteCode   string             `bson:"site_code"`
	ReportDate time.Time          `bson:"report_date"`
	Weather    string             `bson:"weather"`
	Workers    int                `bson:"total_workers"`
	Remarks    string             `bson:"remarks"`
	EngineerID string             `bson:"engineer_id,omitempty"`
	Activities []activityDocument `bson:"activities"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

type activityDocument struct {
	Name       string  `bson:"activity_name"`
	Unit       string  `bson:"unit"`
	Target     float64 `bson:"target"`
	Achieved   float64 `bson:"achieved"`
	Cumulative float64 `bson:"cumulative"`
	Remarks    string  `bson:"remarks,omitempty"`
}

// ReportRepository stores daily reports with their activities embedded, so an
// upsert replaces the activity set in the same write.
type ReportRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

// FetchReports returns the reports of the given sites between start and end
// (inclusive) ordered by date then site. A zero start or end leaves that side
// of the range open.
func (r *ReportRepository) FetchReports(ctx context.Context, sites []string, start, end time.Time) ([]models.DailyReport, error) {
	filter := bson.M{"site_code": bson.M{"$in": sites}}
	dateRange := bson.M{}
	if !start.IsZero() {
		dateRange["$gte"] = models.DateOf(start)
	}
	if !end.IsZero() {
		dateRange["$lte"] = models.DateOf(end)
	}
	if len(dateRange) > 0 {
		filter["report_date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "report_date", Value: 1}, {Key: "site_code", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reportDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}

	out := make([]models.DailyReport, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

// UpsertReport creates or replaces the report of (site, date). The stored
// activity set is replaced wholesale by the report's reported entries.
func (r *ReportRepository) UpsertReport(ctx context.Context, report models.DailyReport) (string, error) {
	now := r.clock()
	date := models.DateOf(report.Date)

	activities := make([]activityDocument, 0, len(report.Activities))
	for _, a := range report.ReportedActivities() {
		activities = append(activities, activityDocument{
			Name:       a.Name,
			Unit:       a.Unit,
			Target:     a.Target,
			Achieved:   a.Achieved,
			Cumulative: a.Cumulative,
			Remarks:    a.Remarks,
		})
	}

	filter := bson.M{"site_code": report.SiteCode, "report_date": date}
	update := bson.M{
		"$set": bson.M{
			"weather":       report.Weather,
			"total_workers": report.Workers,
			"remarks":       report.Remarks,
			"engineer_id":   report.EngineerID,
			"activities":    activities,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved reportDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return "", fmt.Errorf("upsert report %s/%s: %w", report.SiteCode, date.Format(models.DateLayout), err)
	}

	r.logger.Debug("report upserted",
		zap.String("site", report.SiteCode),
		zap.String("date", date.Format(models.DateLayout)),
		zap.Int("activities", len(activities)))
	return saved.ID.Hex(), nil
}

// GetReport returns the report of (site, date).
func (r *ReportRepository) GetReport(ctx context.Context, site string, date time.Time) (models.DailyReport, error) {
	var doc reportDocument
	err := r.coll.FindOne(ctx, bson.M{"site_code": site, "report_date": models.DateOf(date)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DailyReport{}, models.ErrReportNotFound
	}
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("find report: %w", err)
	}
	return doc.toModel(), nil
}

// RecentReports returns the latest reports of a site, newest first.
func (r *ReportRepository) RecentReports(ctx context.Context, site string, limit int) ([]models.DailyReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "report_date", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"site_code": site}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent reports: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reportDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recent reports: %w", err)
	}
	out := make([]models.DailyReport, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

// DeleteReport removes the report of (site, date) together with its activities.
func (r *ReportRepository) DeleteReport(ctx context.Context, site string, date time.Time) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"site_code": site, "report_date": models.DateOf(date)})
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

func (d reportDocument) toModel() models.DailyReport {
	report := models.DailyReport{
		ID:         d.ID.Hex(),
		SiteCode:   d.SiteCode,
		Date:       models.DateOf(d.ReportDate.UTC()),
		Weather:    d.Weather,
		Workers:    d.Workers,
		Remarks:    d.Remarks,
		EngineerID: d.EngineerID,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Activities: make([]models.ActivityEntry, 0, len(d.Activities)),
	}
	for _, a := range d.Activities {
		report.Activities = append(report.Activities, models.ActivityEntry{
			Name:       a.Name,
			Unit:       a.Unit,
			Target:     a.Target,
			Achieved:   a.Achieved,
			Cumulative: a.Cumulative,
			Remarks:    a.Remarks,
		})
	}
	return report
}
