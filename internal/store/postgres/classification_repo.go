package postgres

import (
	"context"
	"fmt"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

// ClassificationRepo implements store.ClassificationRepository on PostgreSQL.
type ClassificationRepo struct {
	db *DB
}

func NewClassificationRepo(db *DB) *ClassificationRepo {
	return &ClassificationRepo{db: db}
}

// Add inserts the address into the named set. ON CONFLICT DO NOTHING keeps
// the insert idempotent; zero rows affected means the address was present.
func (r *ClassificationRepo) Add(ctx context.Context, kind model.Classification, address string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO classification_addresses (kind, address)
		 VALUES ($1, $2)
		 ON CONFLICT (kind, address) DO NOTHING`,
		kind.String(), address)
	if err != nil {
		return false, fmt.Errorf("insert %s address: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns every address in the named set.
func (r *ClassificationRepo) List(ctx context.Context, kind model.Classification) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT address FROM classification_addresses WHERE kind = $1 ORDER BY address`,
		kind.String())
	if err != nil {
		return nil, fmt.Errorf("list %s addresses: %w", kind, err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

// LoadAll returns the full membership of every set, keyed by kind.
func (r *ClassificationRepo) LoadAll(ctx context.Context) (map[model.Classification][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, address FROM classification_addresses ORDER BY kind, address`)
	if err != nil {
		return nil, fmt.Errorf("load classification addresses: %w", err)
	}
	defer rows.Close()

	all := make(map[model.Classification][]string)
	for rows.Next() {
		var kind, addr string
		if err := rows.Scan(&kind, &addr); err != nil {
			return nil, err
		}
		k, ok := model.ParseClassification(kind)
		if !ok {
			continue
		}
		all[k] = append(all[k], addr)
	}
	return all, rows.Err()
}
