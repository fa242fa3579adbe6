package mongo

import (
	"context"
	"errors"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func overlapFilter(instructorID string, iv lecture.Interval) bson.M {
	return bson.M{
		"instructorId": instructorID,
		"startTime":    bson.M{"$lt": iv.End},
		"endTime":      bson.M{"$gt": iv.Start},
	}
}

func (s *Store) HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (bool, error) {
	var n int64
	err := s.observe("lectures.has_overlap", func() error {
		var e error
		n, e = s.lectures.CountDocuments(ctx, overlapFilter(instructorID, iv), options.Count().SetLimit(1))
		return e
	})
	return n > 0, err
}

func (s *Store) Create(ctx context.Context, l lecture.Lecture) (lecture.Lecture, error) {
	u, err := s.GetUser(ctx, l.InstructorID)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return lecture.Lecture{}, lecture.ErrInstructorNotFound
	case err != nil:
		return lecture.Lecture{}, err
	case !u.IsInstructor():
		return lecture.Lecture{}, lecture.ErrInstructorNotFound
	}

	ok, err := s.CourseExists(ctx, l.CourseID)
	if err != nil {
		return lecture.Lecture{}, err
	}
	if !ok {
		return lecture.Lecture{}, lecture.ErrCourseNotFound
	}

	busy, err := s.HasOverlap(ctx, l.InstructorID, l.Interval())
	if err != nil {
		return lecture.Lecture{}, err
	}
	if busy {
		return lecture.Lecture{}, lecture.ErrConflict
	}

	err = s.observe("lectures.insert", func() error {
		_, e := s.lectures.InsertOne(ctx, fromLecture(l))
		return e
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lecture.Lecture{}, lecture.ErrConflict
		}
		return lecture.Lecture{}, err
	}
	return l, nil
}

func listPipeline(filter lecture.ListFilter) mongo.Pipeline {
	match := bson.D{}
	if filter.CourseID != nil {
		match = append(match, bson.E{Key: "courseId", Value: *filter.CourseID})
	}
	if filter.InstructorID != nil {
		match = append(match, bson.E{Key: "instructorId", Value: *filter.InstructorID})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: coursesCollection},
			{Key: "localField", Value: "courseId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "courseData"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "startTime", Value: 1}, {Key: "_id", Value: 1}}}},
	}
}

func (s *Store) List(ctx context.Context, filter lecture.ListFilter) ([]lecture.Enriched, error) {
	var docs []lectureDoc
	err := s.observe("lectures.list", func() error {
		cur, e := s.lectures.Aggregate(ctx, listPipeline(filter))
		if e != nil {
			return e
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	items := make([]lecture.Enriched, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toEnriched())
	}
	return items, nil
}
