package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/store"
)

const reportsCollection = "reports"

// MongoStore is the MongoDB ReportStore. Reports are stored with their id as _id.
type MongoStore struct {
	Client *mongo.Client
	col    *mongo.Collection
}

func NewMongo(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := &MongoStore{Client: c, col: c.Database(dbName).Collection(reportsCollection)}
	if err := s.createIndexes(dctx); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	var errs []string
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "case_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("case_id_unique")},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "urgency", Value: 1}}},
		{Keys: bson.D{{Key: "reporter_id", Value: 1}}},
	}
	for _, m := range indexes {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New("mongo indexes: " + strings.Join(errs, "; "))
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, r models.Report) (models.Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Version = 1
	if _, err := s.col.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Report{}, store.ErrDuplicateCaseID
		}
		return models.Report{}, err
	}
	return s.Get(ctx, r.ID)
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Report, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByCaseID(ctx context.Context, caseID string) (models.Report, error) {
	return s.findOne(ctx, bson.M{"case_id": caseID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (models.Report, error) {
	var r models.Report
	if err := s.col.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Report{}, store.ErrNotFound
		}
		return models.Report{}, err
	}
	return normalize(r), nil
}

func (s *MongoStore) Update(ctx context.Context, id string, expectedVersion int, patch store.Patch) (models.Report, error) {
	update := bson.M{
		"$set": bson.M(patch.Columns()),
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Report
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": expectedVersion}, update, opts).Decode(&r)
	if err == nil {
		return normalize(r), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Report{}, err
	}
	n, err := s.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return models.Report{}, err
	}
	if n == 0 {
		return models.Report{}, store.ErrNotFound
	}
	return models.Report{}, store.ErrVersionConflict
}

func (s *MongoStore) List(ctx context.Context, f store.Filter) ([]models.Report, error) {
	f = f.Normalize()
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Sector != "" {
		filter["sector"] = string(f.Sector)
	}
	if f.Urgency != "" {
		filter["urgency"] = string(f.Urgency)
	}
	if f.Flagged != nil {
		filter["flagged"] = *f.Flagged
	}
	if f.ReporterID != "" {
		filter["reporter_id"] = f.ReporterID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Report{}
	for cur.Next(ctx) {
		var r models.Report
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, normalize(r))
	}
	return out, cur.Err()
}

// normalize puts decoded timestamps back into UTC.
func normalize(r models.Report) models.Report {
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if r.ResolvedAt != nil {
		t := r.ResolvedAt.UTC()
		r.ResolvedAt = &t
	}
	if r.EscalatedAt != nil {
		t := r.EscalatedAt.UTC()
		r.EscalatedAt = &t
	}
	return r
}
