package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

const overlapQuery = `SELECT EXISTS(
	SELECT 1 FROM lectures
	WHERE instructor_id = $1 AND start_time < $3 AND $2 < end_time
)`

func (s *Store) HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (busy bool, err error) {
	err = s.observe("lectures.has_overlap", func() error {
		return s.pool.QueryRow(ctx, overlapQuery, instructorID, iv.Start, iv.End).Scan(&busy)
	})
	return
}

// Create inserts l in one transaction: advisory lock on the instructor,
// instructor row re-read, overlap re-check, insert. The exclusion constraint
// still catches writers that bypass this path.
func (s *Store) Create(ctx context.Context, l lecture.Lecture) (out lecture.Lecture, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = s.observe("lectures.create_tx.advisory_lock", func() error {
		_, e := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, l.InstructorID)
		return e
	})
	if err != nil {
		return
	}

	var role string
	err = s.observe("lectures.create_tx.instructor", func() error {
		return tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR SHARE`, l.InstructorID).Scan(&role)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		return tx.QueryRow(ctx, overlapQuery, l.InstructorID, l.StartTime, l.EndTime).Scan(&busy)
	})
	if err != nil {
		return
	}
	if busy {
		err = lecture.ErrConflict
		return
	}

	err = s.observe("lectures.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO lectures (id, course_id, instructor_id, topic, start_time, end_time, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, l.ID, l.CourseID, l.InstructorID, l.Topic, l.StartTime, l.EndTime, l.CreatedAt, l.UpdatedAt)
		return e
	})
	if err != nil {
		err = lectureWriteErr(err)
		return
	}

	if err = tx.Commit(ctx); err != nil {
		err = lectureWriteErr(err)
		return
	}

	return l, nil
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

// nullable side of the LEFT JOIN
type courseRow struct {
	ID, UserID, Poster, Title, Description, Mode, Level, Language *string
	CreatedAt, UpdatedAt                                          *time.Time
}

func (r courseRow) toCourse() *course.Course {
	if r.ID == nil {
		return nil
	}
	return &course.Course{
		ID:          *r.ID,
		UserID:      deref(r.UserID),
		Poster:      deref(r.Poster),
		Title:       deref(r.Title),
		Description: deref(r.Description),
		Mode:        deref(r.Mode),
		Level:       deref(r.Level),
		Language:    deref(r.Language),
		CreatedAt:   derefTime(r.CreatedAt),
		UpdatedAt:   derefTime(r.UpdatedAt),
	}
}

func (s *Store) List(ctx context.Context, filter lecture.ListFilter) (items []lecture.Enriched, err error) {
	query, args, err := s.listQuery(filter).ToSql()
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	err = s.observe("lectures.list", func() error {
		rows, err = s.pool.Query(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items = make([]lecture.Enriched, 0)
	for rows.Next() {
		var l lecture.Lecture
		var c courseRow

		err := rows.Scan(
			&l.ID, &l.CourseID, &l.InstructorID, &l.Topic, &l.StartTime, &l.EndTime, &l.CreatedAt, &l.UpdatedAt,
			&c.ID, &c.UserID, &c.Poster, &c.Title, &c.Description, &c.Mode, &c.Level, &c.Language, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		l.StartTime, l.EndTime = l.StartTime.UTC(), l.EndTime.UTC()
		items = append(items, lecture.Enriched{Lecture: l, Course: c.toCourse()})
	}

	if err := rows.Err(); err != nil {
		if s.prom != nil {
			s.prom.DbErrorsTotal.WithLabelValues("lectures.list", "rows_err").Inc()
		}
		return nil, err
	}

	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
