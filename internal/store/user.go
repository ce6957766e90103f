package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorekeep/canon/internal/domain"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO users (name, api_key_hash) VALUES ($1, $2)
		 RETURNING id, created_at`,
		u.Name, u.APIKeyHash,
	).Scan(&u.ID, &u.CreatedAt)
}

func (s *UserStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at
		 FROM users WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&u.ID, &u.Name, &u.APIKeyHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
