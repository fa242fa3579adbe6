package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/jackc/pgx/v5"
)

const courseColumns = `id, user_id, poster, title, description, mode, level, language, created_at, updated_at`

func scanCourse(row pgx.Row) (c course.Course, err error) {
	err = row.Scan(&c.ID, &c.UserID, &c.Poster, &c.Title, &c.Description, &c.Mode, &c.Level, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	return
}

func (s *Store) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := s.observe("courses.create", func() error {
		_, e := s.pool.Exec(ctx, `
		INSERT INTO courses (`+courseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, c.ID, c.UserID, c.Poster, c.Title, c.Description, c.Mode, c.Level, c.Language, c.CreatedAt, c.UpdatedAt)
		return e
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (c course.Course, err error) {
	err = s.observe("courses.get_by_id", func() error {
		var e error
		c, e = scanCourse(s.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return c, nil
}

func (s *Store) ListCourses(ctx context.Context) (items []course.Course, err error) {
	var rows pgx.Rows

	err = s.observe("courses.list", func() error {
		rows, err = s.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at ASC, id ASC`)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items = make([]course.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}

	return items, rows.Err()
}

func (s *Store) CourseExists(ctx context.Context, id string) (exists bool, err error) {
	err = s.observe("courses.exists", func() error {
		return s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists)
	})
	return
}

// updateCourseQuery sets only the fields present in req. req must not be empty.
func (s *Store) updateCourseQuery(id string, req course.UpdateCourseRequest) squirrel.UpdateBuilder {
	set := squirrel.Eq{}
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

	return s.sb.Update("courses").
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + courseColumns)
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (c course.Course, err error) {
	if req.Empty() {
		return s.GetCourse(ctx, id)
	}

	query, args, err := s.updateCourseQuery(id, req).ToSql()
	if err != nil {
		return course.Course{}, err
	}

	err = s.observe("courses.update", func() error {
		var e error
		c, e = scanCourse(s.pool.QueryRow(ctx, query, args...))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return c, nil
}

// DeleteCourse relies on lectures_course_id_fkey (ON DELETE RESTRICT) to refuse
// courses that still have lectures.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	var affected int64
	err := s.observe("courses.delete", func() error {
		tag, e := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		if isForeignKeyViolation(err, constraintLectureCourse) {
			return course.ErrInUse
		}
		return err
	}

	if affected == 0 {
		return course.ErrNotFound
	}
	return nil
}
