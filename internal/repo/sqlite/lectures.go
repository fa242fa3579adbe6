package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/mattn/go-sqlite3"
)

const overlapQuery = `SELECT EXISTS(
	SELECT 1 FROM lectures
	WHERE instructor_id = ? AND start_time < ? AND ? < end_time
)`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasOverlap(ctx context.Context, q queryRower, instructorID string, iv lecture.Interval) (busy bool, err error) {
	err = q.QueryRowContext(ctx, overlapQuery, instructorID, toMicros(iv.End), toMicros(iv.Start)).Scan(&busy)
	return
}

func (s *Store) HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (busy bool, err error) {
	err = s.observe("lectures.has_overlap", func() error {
		var e error
		busy, e = hasOverlap(ctx, s.db, instructorID, iv)
		return e
	})
	return
}

// Create re-checks references and overlap in an immediate transaction before
// inserting.
func (s *Store) Create(ctx context.Context, l lecture.Lecture) (out lecture.Lecture, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var role string
	err = s.observe("lectures.create_tx.instructor", func() error {
		return tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, l.InstructorID).Scan(&role)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = lecture.ErrInstructorNotFound
		}
		return
	}
	if role != user.RoleInstructor {
		err = lecture.ErrInstructorNotFound
		return
	}

	var busy bool
	err = s.observe("lectures.create_tx.overlap", func() error {
		var e error
		busy, e = hasOverlap(ctx, tx, l.InstructorID, l.Interval())
		return e
	})
	if err != nil {
		return
	}
	if busy {
		err = lecture.ErrConflict
		return
	}

	err = s.observe("lectures.create_tx.insert", func() error {
		_, e := tx.ExecContext(ctx, `
		INSERT INTO lectures (id, course_id, instructor_id, topic, start_time, end_time, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
			l.ID, l.CourseID, l.InstructorID, l.Topic,
			toMicros(l.StartTime), toMicros(l.EndTime), toMicros(l.CreatedAt), toMicros(l.UpdatedAt))
		return e
	})
	if err != nil {
		err = lectureWriteErr(err)
		return
	}

	if err = tx.Commit(); err != nil {
		return
	}
	return l, nil
}

func lectureWriteErr(err error) error {
	code, ok := constraintCode(err)
	if !ok {
		return err
	}

	switch code {
	case sqlite3.ErrConstraintForeignKey:
		// only the course can be missing here, the instructor row was read in the tx
		return lecture.ErrCourseNotFound
	case sqlite3.ErrConstraintCheck:
		return &lecture.ValidationError{Reason: err.Error()}
	}
	return err
}

func (s *Store) listQuery(filter lecture.ListFilter) squirrel.SelectBuilder {
	q := s.sb.Select(
		"l.id", "l.course_id", "l.instructor_id", "l.topic", "l.start_time", "l.end_time", "l.created_at", "l.updated_at",
		"c.id", "c.user_id", "c.poster", "c.title", "c.description", "c.mode", "c.level", "c.language", "c.created_at", "c.updated_at",
	).
		From("lectures l").
		LeftJoin("courses c ON c.id = l.course_id").
		OrderBy("l.start_time ASC", "l.id ASC")

	if filter.CourseID != nil {
		q = q.Where(squirrel.Eq{"l.course_id": *filter.CourseID})
	}
	if filter.InstructorID != nil {
		q = q.Where(squirrel.Eq{"l.instructor_id": *filter.InstructorID})
	}
	return q
}

func (s *Store) List(ctx context.Context, filter lecture.ListFilter) ([]lecture.Enriched, error) {
	query, args, err := s.listQuery(filter).ToSql()
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	err = s.observe("lectures.list", func() error {
		var e error
		rows, e = s.db.QueryContext(ctx, query, args...)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]lecture.Enriched, 0)
	for rows.Next() {
		var l lecture.Lecture
		var start, end, created, updated int64
		var cID, cUser, cPoster, cTitle, cDesc, cMode, cLevel, cLang sql.NullString
		var cCreated, cUpdated sql.NullInt64

		err := rows.Scan(
			&l.ID, &l.CourseID, &l.InstructorID, &l.Topic, &start, &end, &created, &updated,
			&cID, &cUser, &cPoster, &cTitle, &cDesc, &cMode, &cLevel, &cLang, &cCreated, &cUpdated,
		)
		if err != nil {
			return nil, err
		}

		l.StartTime, l.EndTime = fromMicros(start), fromMicros(end)
		l.CreatedAt, l.UpdatedAt = fromMicros(created), fromMicros(updated)

		e := lecture.Enriched{Lecture: l}
		if cID.Valid {
			e.Course = &course.Course{
				ID:          cID.String,
				UserID:      cUser.String,
				Poster:      cPoster.String,
				Title:       cTitle.String,
				Description: cDesc.String,
				Mode:        cMode.String,
				Level:       cLevel.String,
				Language:    cLang.String,
				CreatedAt:   fromMicros(cCreated.Int64),
				UpdatedAt:   fromMicros(cUpdated.Int64),
			}
		}
		items = append(items, e)
	}

	return items, rows.Err()
}
