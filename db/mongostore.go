// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/danielhkuo/live-poll/models"
)

// DefaultMongoDatabase is used when the connection string names no database
const DefaultMongoDatabase = "live_poll"

// Collection names
const (
	collStudents  = "students"
	collPolls     = "polls"
	collResponses = "responses"
	collMessages  = "messages"
)

// MongoStore implements Store on MongoDB. Documents use the same field
// names as the JSON wire format; IDs are ObjectID hex strings.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// OpenMongo connects, pings and ensures indexes
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb URI: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes mirrors the unique keys of the SQL schema
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collStudents: {
			{Keys: bson.D{{Key: "socketId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		collPolls: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		collResponses: {
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "pollId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "pollId", Value: 1}}},
		},
		collMessages: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Drop removes every collection (used by tests)
func (s *MongoStore) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter, opts...).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Students

func (s *MongoStore) UpsertStudent(ctx context.Context, name, sessionID string) (*models.Student, error) {
	update := bson.M{
		"$set":         bson.M{"name": name, "isKicked": false},
		"$setOnInsert": bson.M{"_id": newObjectID(), "joinedAt": now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var st models.Student
	err := s.db.Collection(collStudents).
		FindOneAndUpdate(ctx, bson.M{"socketId": sessionID}, update, opts).
		Decode(&st)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert student: %w", err)
	}
	return &st, nil
}

func (s *MongoStore) GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error) {
	st, err := findOne[models.Student](ctx, s.db.Collection(collStudents), bson.M{"socketId": sessionID})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return st, err
}

func (s *MongoStore) FindStudentByName(ctx context.Context, name string) (*models.Student, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "isKicked", Value: 1}, {Key: "joinedAt", Value: 1}, {Key: "_id", Value: 1}})
	st, err := findOne[models.Student](ctx, s.db.Collection(collStudents), bson.M{"name": name}, opts)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return st, err
}

func (s *MongoStore) KickStudentsByName(ctx context.Context, name string) ([]string, error) {
	coll := s.db.Collection(collStudents)
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}, {Key: "_id", Value: 1}})
	students, err := findAll[models.Student](ctx, coll, bson.M{"name": name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	if len(students) == 0 {
		return nil, nil
	}

	if _, err := coll.UpdateMany(ctx, bson.M{"name": name}, bson.M{"$set": bson.M{"isKicked": true}}); err != nil {
		return nil, fmt.Errorf("failed to kick student: %w", err)
	}

	sessions := make([]string, len(students))
	for i, st := range students {
		sessions[i] = st.SessionID
	}
	return sessions, nil
}

func (s *MongoStore) DeleteStudentBySession(ctx context.Context, sessionID string) error {
	if _, err := s.db.Collection(collStudents).DeleteOne(ctx, bson.M{"socketId": sessionID}); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (s *MongoStore) ListActiveStudents(ctx context.Context) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}, {Key: "_id", Value: 1}})
	students, err := findAll[models.Student](ctx, s.db.Collection(collStudents), bson.M{"isKicked": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	return students, nil
}

func (s *MongoStore) CountActiveStudents(ctx context.Context) (int, error) {
	n, err := s.db.Collection(collStudents).CountDocuments(ctx, bson.M{"isKicked": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return int(n), nil
}

// Polls

func (s *MongoStore) CreatePoll(ctx context.Context, poll *models.Poll) error {
	if poll.ID == "" {
		poll.ID = newObjectID()
	}
	if poll.CreatedAt.IsZero() {
		poll.CreatedAt = now()
	}
	for i := range poll.Options {
		if poll.Options[i].ID == "" {
			poll.Options[i].ID = newObjectID()
		}
	}

	if _, err := s.db.Collection(collPolls).InsertOne(ctx, poll); err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (s *MongoStore) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	poll, err := findOne[models.Poll](ctx, s.db.Collection(collPolls), bson.M{"_id": id})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}
	return poll, err
}

func (s *MongoStore) ListPolls(ctx context.Context, limit int) ([]models.Poll, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	polls, err := findAll[models.Poll](ctx, s.db.Collection(collPolls), bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	return polls, nil
}

// Responses

func (s *MongoStore) SaveResponse(ctx context.Context, resp *models.Response) error {
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = now()
	}
	id := resp.ID
	if id == "" {
		id = newObjectID()
	}

	filter := bson.M{"studentId": resp.StudentID, "pollId": resp.PollID}
	update := bson.M{
		"$set": bson.M{
			"selectedOption": resp.SelectedOption,
			"isCorrect":      resp.IsCorrect,
			"submittedAt":    resp.SubmittedAt,
		},
		"$setOnInsert": bson.M{"_id": id},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	err := s.db.Collection(collResponses).FindOneAndUpdate(ctx, filter, update, opts).Decode(resp)
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

func (s *MongoStore) ListResponses(ctx context.Context, pollID string) ([]models.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	responses, err := findAll[models.Response](ctx, s.db.Collection(collResponses), bson.M{"pollId": pollID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	return responses, nil
}

func (s *MongoStore) ListAllResponses(ctx context.Context) ([]models.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	responses, err := findAll[models.Response](ctx, s.db.Collection(collResponses), bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	return responses, nil
}

func (s *MongoStore) CountResponses(ctx context.Context, pollID string) (int, error) {
	n, err := s.db.Collection(collResponses).CountDocuments(ctx, bson.M{"pollId": pollID})
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return int(n), nil
}

// Chat

func (s *MongoStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = newObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}
	if _, err := s.db.Collection(collMessages).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *MongoStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	messages, err := findAll[models.Message](ctx, s.db.Collection(collMessages), bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}
