package store

import (
	"context"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

// ClassificationRepository persists classification set membership.
type ClassificationRepository interface {
	// Add inserts the address into the named set. Returns false with a nil
	// error when the address was already present; insertion is idempotent
	// and never merges silently.
	Add(ctx context.Context, kind model.Classification, address string) (bool, error)

	// List returns every address in the named set.
	List(ctx context.Context, kind model.Classification) ([]string, error)

	// LoadAll returns the full membership of every set, keyed by kind.
	LoadAll(ctx context.Context) (map[model.Classification][]string, error)
}

// NonceRepository records consumed (sender, nonce) pairs so each
// authorization is granted at most once.
type NonceRepository interface {
	// Consume marks the pair as used. Returns false when the pair was
	// already consumed.
	Consume(ctx context.Context, sender, nonce string) (bool, error)
}
