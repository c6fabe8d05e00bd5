package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
)

// MongoStore backs both stores with two collections. Messages rely on
// insertion order of an ascending timestamp index, matching log order.
type MongoStore struct {
	reqCol *mongo.Collection
	msgCol *mongo.Collection
}

func NewMongoStore(reqCol, msgCol *mongo.Collection) *MongoStore {
	return &MongoStore{reqCol: reqCol, msgCol: msgCol}
}

// EnsureIndexes creates the indexes the queries below depend on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.msgCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.reqCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, r *models.MeetingRequest) error {
	_, err := s.reqCol.InsertOne(ctx, r)
	return wrapErr(err)
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.MeetingRequest, error) {
	var r models.MeetingRequest
	err := s.reqCol.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return &r, nil
}

func (s *MongoStore) Update(ctx context.Context, r *models.MeetingRequest, expected time.Time) error {
	res, err := s.reqCol.ReplaceOne(ctx, bson.M{"_id": r.ID, "updated_at": expected}, r)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		// distinguish a lost race from a missing record
		n, err := s.reqCol.CountDocuments(ctx, bson.M{"_id": r.ID})
		if err != nil {
			return wrapErr(err)
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		return apperr.ErrConflictingTransition
	}
	return nil
}

func (s *MongoStore) ListByParty(ctx context.Context, userID string, status models.Status) ([]*models.MeetingRequest, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": userID},
		bson.M{"assignee_id": userID},
	}}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.reqCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)

	var out []*models.MeetingRequest
	for cur.Next(ctx) {
		var r models.MeetingRequest
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

func (s *MongoStore) Append(ctx context.Context, m *models.Message) error {
	_, err := s.msgCol.InsertOne(ctx, m)
	return wrapErr(err)
}

func (s *MongoStore) ForUser(ctx context.Context, userID string) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
	return s.findMessages(ctx, filter)
}

func (s *MongoStore) Thread(ctx context.Context, a, b string) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	return s.findMessages(ctx, filter)
}

func (s *MongoStore) findMessages(ctx context.Context, filter bson.M) ([]models.Message, error) {
	cur, err := s.msgCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)

	var out []models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

func (s *MongoStore) MarkRead(ctx context.Context, viewerID, contactID string) (int64, error) {
	res, err := s.msgCol.UpdateMany(ctx,
		bson.M{"receiver_id": viewerID, "sender_id": contactID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, wrapErr(err)
	}
	return res.ModifiedCount, nil
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ErrTimeout
	}
	return err
}
