package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"serveyz.org/internal/ids"
	"serveyz.org/internal/user"
)

// UserStore implements user.Store on Postgres.
type UserStore struct {
	db *sql.DB
}

var _ user.Store = (*UserStore)(nil)

func (s *UserStore) UpsertIfAbsent(ctx context.Context, u user.User) (user.User, bool, error) {
	if strings.TrimSpace(u.Email) == "" {
		return user.User{}, false, user.ErrInvalidEmail
	}
	id := ids.New()
	// Caller-supplied roles are ignored; inserts always start at "user".
	res, err := s.db.ExecContext(ctx, `
		insert into users(id, email, name, photo_url, role, created_at)
		values ($1, $2, $3, $4, 'user', now())
		on conflict (email) do nothing
	`, id, u.Email, u.Name, u.PhotoURL)
	if err != nil {
		return user.User{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return user.User{}, false, err
	}
	stored, err := s.FindByEmail(ctx, u.Email)
	if err != nil {
		return user.User{}, false, err
	}
	return stored, affected == 1, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx, `
		select id, email, coalesce(name,''), coalesce(photo_url,''), role, created_at
		from users where email=$1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, email, coalesce(name,''), coalesce(photo_url,''), role, created_at
		from users order by created_at asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *UserStore) SetRole(ctx context.Context, id string, role user.Role) error {
	res, err := s.db.ExecContext(ctx, `update users set role=$2 where id=$1`, id, string(role))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *UserStore) SetRoleByEmail(ctx context.Context, email string, role user.Role) error {
	res, err := s.db.ExecContext(ctx, `update users set role=$2 where email=$1`, email, string(role))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *UserStore) RoleFlag(ctx context.Context, email string, role user.Role) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `select role from users where email=$1`, email).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == string(role), nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
