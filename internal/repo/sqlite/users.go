package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/repo"
	"github.com/mattn/go-sqlite3"
)

const userColumns = `id, name, email, phone, password_hash, role, gender, city,
	highest_qualification, preferred_language, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := s.observe("users.create", func() error {
		_, e := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Gender, u.City,
			u.HighestQualification, u.PreferredLanguage, toMicros(u.CreatedAt), toMicros(u.UpdatedAt))
		return e
	})
	if err != nil {
		if code, ok := constraintCode(err); ok && code == sqlite3.ErrConstraintUnique {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.getUserBy(ctx, "users.get_by_id", `id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserBy(ctx, "users.get_by_email", `email = lower(?)`, email)
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var created, updated int64

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Gender, &u.City,
		&u.HighestQualification, &u.PreferredLanguage, &created, &updated,
	)
	if err != nil {
		return user.User{}, err
	}

	u.CreatedAt, u.UpdatedAt = fromMicros(created), fromMicros(updated)
	return u, nil
}

func (s *Store) getUserBy(ctx context.Context, op, where, arg string) (u user.User, err error) {
	err = s.observe(op, func() error {
		var e error
		u, e = scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return e
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	set := squirrel.Eq{}
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
		set["highest_qualification"] = *req.HighestQualification
	}
	if req.PreferredLanguage != nil {
		set["preferred_language"] = *req.PreferredLanguage
	}

	err := s.updateByID(ctx, "users.update", "users", id, set)
	if err != nil {
		if code, ok := constraintCode(err); ok && code == sqlite3.ErrConstraintUnique {
			return user.User{}, user.ErrEmailTaken
		}
		if errors.Is(err, errNoRow) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return s.GetUser(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.queryUsers(ctx, "users.list", `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
}

func (s *Store) SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error) {
	return s.queryUsers(ctx, "users.search", `
		SELECT `+userColumns+` FROM users
		WHERE lower(name) LIKE ? ESCAPE '\'
		ORDER BY created_at ASC, id ASC`, repo.LikePrefix(namePrefix))
}

func (s *Store) queryUsers(ctx context.Context, op, query string, args ...any) ([]user.User, error) {
	var rows *sql.Rows
	err := s.observe(op, func() error {
		var e error
		rows, e = s.db.QueryContext(ctx, query, args...)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
