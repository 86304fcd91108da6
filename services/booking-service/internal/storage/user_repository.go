package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafaeldmoura/pontual/libs/db"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindUser(ctx context.Context, id string) (model.User, bool, error) {
	return r.findWhere(ctx, `id = $1`, id)
}

// FindProvider resolves id only when the user has the provider flag set.
func (r *UserRepository) FindProvider(ctx context.Context, id string) (model.User, bool, error) {
	return r.findWhere(ctx, `id = $1 AND provider`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	return r.findWhere(ctx, `email = $1`, email)
}

func (r *UserRepository) findWhere(ctx context.Context, cond string, arg any) (model.User, bool, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, provider
		FROM users
		WHERE `+cond,
		arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Provider)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

func (r *UserRepository) ListProviders(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email
		FROM users
		WHERE provider
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		u.Provider = true
		providers = append(providers, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return providers, nil
}
