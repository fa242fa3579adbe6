package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/mattn/go-sqlite3"
)

// errNoRow marks an update or delete whose id matched nothing.
var errNoRow = errors.New("no row matched")

const courseColumns = `id, user_id, poster, title, description, mode, level, language, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (course.Course, error) {
	var c course.Course
	var created, updated int64

	err := row.Scan(&c.ID, &c.UserID, &c.Poster, &c.Title, &c.Description, &c.Mode, &c.Level, &c.Language, &created, &updated)
	if err != nil {
		return course.Course{}, err
	}

	c.CreatedAt, c.UpdatedAt = fromMicros(created), fromMicros(updated)
	return c, nil
}

func (s *Store) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := s.observe("courses.create", func() error {
		_, e := s.db.ExecContext(ctx, `INSERT INTO courses (`+courseColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
			c.ID, c.UserID, c.Poster, c.Title, c.Description, c.Mode, c.Level, c.Language,
			toMicros(c.CreatedAt), toMicros(c.UpdatedAt))
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
		c, e = scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
		return e
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return c, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]course.Course, error) {
	var rows *sql.Rows
	err := s.observe("courses.list", func() error {
		var e error
		rows, e = s.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at ASC, id ASC`)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]course.Course, 0)
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
		return s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = ?)`, id).Scan(&exists)
	})
	return
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
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

	if err := s.updateByID(ctx, "courses.update", "courses", id, set); err != nil {
		if errors.Is(err, errNoRow) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return s.GetCourse(ctx, id)
}

// updateByID writes set plus updated_at. An empty set still touches
// updated_at, which doubles as the existence check.
func (s *Store) updateByID(ctx context.Context, op, table, id string, set squirrel.Eq) error {
	query, args, err := s.sb.Update(table).
		SetMap(set).
		Set("updated_at", toMicros(time.Now())).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	var affected int64
	err = s.observe(op, func() error {
		res, e := s.db.ExecContext(ctx, query, args...)
		if e != nil {
			return e
		}
		affected, e = res.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNoRow
	}
	return nil
}

// DeleteCourse leans on the lectures.course_id foreign key (ON DELETE RESTRICT).
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	var affected int64
	err := s.observe("courses.delete", func() error {
		res, e := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
		if e != nil {
			return e
		}
		affected, e = res.RowsAffected()
		return e
	})
	if err != nil {
		if code, ok := constraintCode(err); ok && code == sqlite3.ErrConstraintForeignKey {
			return course.ErrInUse
		}
		return err
	}

	if affected == 0 {
		return course.ErrNotFound
	}
	return nil
}
