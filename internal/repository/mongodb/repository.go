package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	reportsCollection    = "daily_reports"
	recipientsCollection = "email_recipients"
	deliveryCollection   = "email_logs"
	runsCollection       = "distribution_runs"
)

// MongoDBRepository owns the MongoDB connection shared by the store adapters.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the indexes the stores rely on. The unique
// (site_code, report_date) index backs the one-report-per-site-per-day rule.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		reportsCollection: {
			{
				Keys:    bson.D{{Key: "site_code", Value: 1}, {Key: "report_date", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("site_date_unique"),
			},
		},
		recipientsCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("email_unique"),
			},
		},
		deliveryCollection: {
			{Keys: bson.D{{Key: "report_date", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		runsCollection: {
			{
				Keys:    bson.D{{Key: "report_type", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("report_type_unique"),
			},
		},
	}

	for coll, idx := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	r.logger.Debug("mongodb indexes ensured")
	return nil
}

// Reports returns the daily report store.
func (r *MongoDBRepository) Reports() *ReportRepository {
	return &ReportRepository{coll: r.db.Collection(reportsCollection), logger: r.logger.Named("reports")}
}

// Recipients returns the recipient store.
func (r *MongoDBRepository) Recipients() *RecipientRepository {
	return &RecipientRepository{coll: r.db.Collection(recipientsCollection)}
}

// DeliveryLog returns the append-only delivery log.
func (r *MongoDBRepository) DeliveryLog() *DeliveryLogRepository {
	return &DeliveryLogRepository{coll: r.db.Collection(deliveryCollection)}
}

// Runs returns the distribution state store.
func (r *MongoDBRepository) Runs() *RunStateRepository {
	return &RunStateRepository{coll: r.db.Collection(runsCollection)}
}

// Ping verifies the connection is still alive.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
