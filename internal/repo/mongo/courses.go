package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := s.observe("courses.create", func() error {
		_, e := s.courses.InsertOne(ctx, fromCourse(c))
		return e
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var doc courseDoc
	err := s.observe("courses.get_by_id", func() error {
		return s.courses.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return doc.toCourse(), nil
}

func (s *Store) ListCourses(ctx context.Context) ([]course.Course, error) {
	var docs []courseDoc
	err := s.observe("courses.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
		cur, e := s.courses.Find(ctx, bson.M{}, opts)
		if e != nil {
			return e
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	items := make([]course.Course, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toCourse())
	}
	return items, nil
}

func (s *Store) CourseExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.observe("courses.exists", func() error {
		var e error
		n, e = s.courses.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		return e
	})
	return n > 0, err
}

// courseSet builds the $set body for a partial course update.
func courseSet(req course.UpdateCourseRequest, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if req.Poster != nil {
		set["poster"] = *req.Poster
	}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Mode != nil {
		set["mode"] = *req.Mode
	}
	if req.Level != nil {
		set["level"] = *req.Level
	}
	if req.Language != nil {
		set["language"] = *req.Language
	}
	return set
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
	var doc courseDoc
	err := s.observe("courses.update", func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return s.courses.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": courseSet(req, time.Now().UTC())}, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return doc.toCourse(), nil
}

// DeleteCourse refuses while lectures reference the course. Without a
// foreign key this is check-then-delete, so a lecture assigned between the
// two calls can still end up dangling.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	exists, err := s.CourseExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return course.ErrNotFound
	}

	var refs int64
	err = s.observe("courses.delete_refs", func() error {
		var e error
		refs, e = s.lectures.CountDocuments(ctx, bson.M{"courseId": id}, options.Count().SetLimit(1))
		return e
	})
	if err != nil {
		return err
	}
	if refs > 0 {
		return course.ErrInUse
	}

	var deleted int64
	err = s.observe("courses.delete", func() error {
		res, e := s.courses.DeleteOne(ctx, bson.M{"_id": id})
		if e != nil {
			return e
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return course.ErrNotFound
	}
	return nil
}
