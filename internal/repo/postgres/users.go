package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/repo"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, phone, password_hash, role, gender, city,
	highest_qualification, preferred_language, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Role,
		&u.Gender,
		&u.City,
		&u.HighestQualification,
		&u.PreferredLanguage,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := s.observe("users.create", func() error {
		_, e := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Gender, u.City,
			u.HighestQualification, u.PreferredLanguage, u.CreatedAt, u.UpdatedAt)
		return e
	})
	if err != nil {
		if isUniqueViolation(err, constraintUsersEmail) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.getUserBy(ctx, "users.get_by_id", `id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserBy(ctx, "users.get_by_email", `email = lower($1)`, email)
}

func (s *Store) getUserBy(ctx context.Context, op, where string, arg string) (u user.User, err error) {
	err = s.observe(op, func() error {
		var e error
		u, e = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) updateUserQuery(id string, req user.UpdateUserRequest) squirrel.UpdateBuilder {
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

	return s.sb.Update("users").
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + userColumns)
}

func (s *Store) UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (u user.User, err error) {
	if req.Empty() {
		return s.GetUser(ctx, id)
	}

	query, args, err := s.updateUserQuery(id, req).ToSql()
	if err != nil {
		return user.User{}, err
	}

	err = s.observe("users.update", func() error {
		var e error
		u, e = scanUser(s.pool.QueryRow(ctx, query, args...))
		return e
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err, constraintUsersEmail):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.queryUsers(ctx, "users.list", `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
}

func (s *Store) SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error) {
	return s.queryUsers(ctx, "users.search", `
		SELECT `+userColumns+` FROM users
		WHERE lower(name) LIKE $1 ESCAPE '\'
		ORDER BY created_at ASC, id ASC`, repo.LikePrefix(namePrefix))
}

func (s *Store) queryUsers(ctx context.Context, op, query string, args ...any) (items []user.User, err error) {
	var rows pgx.Rows
	err = s.observe(op, func() error {
		var e error
		rows, e = s.pool.Query(ctx, query, args...)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items = make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
