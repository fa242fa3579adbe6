// Package mongo stores users, courses and lectures as documents keyed by their
// UUID. MongoDB has no exclusion constraint, so double-booking protection for
// concurrent writers rests on the scheduling service's per-instructor lock;
// Create still re-checks before inserting.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/lecturehub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	coursesCollection  = "courses"
	lecturesCollection = "lectures"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	courses  *mongo.Collection
	lectures *mongo.Collection
	prom     *observability.Prom
}

// Connect dials uri, pings it and ensures indexes on database dbName.
func Connect(ctx context.Context, uri, dbName string, prom *observability.Prom) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		courses:  db.Collection(coursesCollection),
		lectures: db.Collection(lecturesCollection),
		prom:     prom,
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_uniq"),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = s.lectures.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "instructorId", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().SetName("lectures_instructor_start"),
		},
		{
			Keys:    bson.D{{Key: "courseId", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().SetName("lectures_course_start"),
		},
	})
	if err != nil {
		return fmt.Errorf("lectures index: %w", err)
	}

	return nil
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.observe("ping", func() error { return s.client.Ping(ctx, nil) })
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
