package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := s.observe("users.create", func() error {
		_, e := s.users.InsertOne(ctx, fromUser(u))
		return e
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.findUser(ctx, "users.get_by_id", bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.findUser(ctx, "users.get_by_email", bson.M{"email": strings.ToLower(email)})
}

func (s *Store) findUser(ctx context.Context, op string, filter bson.M) (user.User, error) {
	var doc userDoc
	err := s.observe(op, func() error {
		return s.users.FindOne(ctx, filter).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return doc.toUser(), nil
}

func userSet(req user.UpdateUserRequest, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.Gender != nil {
		set["gender"] = *req.Gender
	}
	if req.City != nil {
		set["city"] = *req.City
	}
	if req.HighestQualification != nil {
		set["highestQualification"] = *req.HighestQualification
	}
	if req.PreferredLanguage != nil {
		set["preferredLanguage"] = *req.PreferredLanguage
	}
	return set
}

func (s *Store) UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	var doc userDoc
	err := s.observe("users.update", func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": userSet(req, time.Now().UTC())}, opts).Decode(&doc)
	})
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return user.User{}, user.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return doc.toUser(), nil
}

// nameSearchFilter anchors the prefix and quotes it, so user input is never
// interpreted as a pattern.
func nameSearchFilter(prefix string) bson.M {
	return bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}}
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.findUsers(ctx, "users.list", bson.M{})
}

func (s *Store) SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error) {
	return s.findUsers(ctx, "users.search", nameSearchFilter(namePrefix))
}

func (s *Store) findUsers(ctx context.Context, op string, filter bson.M) ([]user.User, error) {
	var docs []userDoc
	err := s.observe(op, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
		cur, e := s.users.Find(ctx, filter, opts)
		if e != nil {
			return e
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	items := make([]user.User, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toUser())
	}
	return items, nil
}
