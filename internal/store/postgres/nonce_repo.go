package postgres

import (
	"context"
	"fmt"
)

// NonceRepo implements store.NonceRepository on PostgreSQL. The primary
// key on (sender, nonce) makes Consume race-free across replicas.
type NonceRepo struct {
	db *DB
}

func NewNonceRepo(db *DB) *NonceRepo {
	return &NonceRepo{db: db}
}

func (r *NonceRepo) Consume(ctx context.Context, sender, nonce string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO consumed_nonces (sender, nonce)
		 VALUES ($1, $2)
		 ON CONFLICT (sender, nonce) DO NOTHING`,
		sender, nonce)
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
