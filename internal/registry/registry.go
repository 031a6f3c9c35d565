// Package registry maintains the three address classification sets
// (sanctioned, mixer, darknet) behind a single thread-safe owner instance
// passed explicitly to collaborators.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/metrics"
	"github.com/Utkarsh575/wf-hack-misfits/internal/store"
)

// DefaultSanctioned ships with the deployment's known-bad wallet so a
// fresh process denies it before any operator report arrives. It mirrors
// the blocked list compiled into the receiving contract.
var DefaultSanctioned = []string{
	"wasm12gcpk8rsezs5lfjq2xmp0rd69e6k8gx02u7yv5",
}

// Registry answers membership and union queries over the classification
// sets. Writers serialize on a single mutex so two concurrent adds of the
// same new address never both report success. Reads take the shared lock.
type Registry struct {
	mu     sync.RWMutex
	sets   map[model.Classification]map[string]struct{}
	repo   store.ClassificationRepository
	logger *slog.Logger
}

// Option configures optional registry dependencies.
type Option func(*Registry)

// WithRepository enables write-through persistence for set membership.
func WithRepository(repo store.ClassificationRepository) Option {
	return func(r *Registry) { r.repo = repo }
}

// New creates an empty registry.
func New(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		sets:   make(map[model.Classification]map[string]struct{}, len(model.Classifications)),
		logger: logger.With("component", "registry"),
	}
	for _, kind := range model.Classifications {
		r.sets[kind] = make(map[string]struct{})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load hydrates the in-memory sets from the repository. No-op without one.
func (r *Registry) Load(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	all, err := r.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load classification sets: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, addrs := range all {
		set, ok := r.sets[kind]
		if !ok {
			continue
		}
		for _, addr := range addrs {
			set[addr] = struct{}{}
		}
		metrics.RegistrySize.WithLabelValues(kind.String()).Set(float64(len(set)))
	}
	return nil
}

// Seed inserts addresses without persistence or duplicate errors. Used for
// the compiled-in defaults at startup.
func (r *Registry) Seed(kind model.Classification, addrs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.sets[kind]
	for _, addr := range addrs {
		set[addr] = struct{}{}
	}
	metrics.RegistrySize.WithLabelValues(kind.String()).Set(float64(len(set)))
}

// Add inserts the address into the named set. Returns
// fault.ErrAlreadyListed without mutating anything when it is present.
func (r *Registry) Add(ctx context.Context, kind model.Classification, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[kind]
	if !ok {
		return fmt.Errorf("unknown classification %q", kind)
	}
	if _, exists := set[address]; exists {
		metrics.RegistryAddsTotal.WithLabelValues(kind.String(), "duplicate").Inc()
		return fault.ErrAlreadyListed
	}

	if r.repo != nil {
		inserted, err := r.repo.Add(ctx, kind, address)
		if err != nil {
			metrics.RegistryAddsTotal.WithLabelValues(kind.String(), "error").Inc()
			return fmt.Errorf("persist %s address: %w", kind, err)
		}
		if !inserted {
			// Present in the store but not in memory: another instance
			// added it. Adopt it locally and report the duplicate.
			set[address] = struct{}{}
			metrics.RegistryAddsTotal.WithLabelValues(kind.String(), "duplicate").Inc()
			return fault.ErrAlreadyListed
		}
	}

	set[address] = struct{}{}
	metrics.RegistryAddsTotal.WithLabelValues(kind.String(), "added").Inc()
	metrics.RegistrySize.WithLabelValues(kind.String()).Set(float64(len(set)))
	r.logger.Info("address added to classification set", "kind", kind, "address", address)
	return nil
}

// Contains reports membership in the named set. No side effects.
func (r *Registry) Contains(kind model.Classification, address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sets[kind][address]
	return ok
}

// Classify returns every set the address appears in, in canonical order.
func (r *Registry) Classify(address string) []model.Classification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var kinds []model.Classification
	for _, kind := range model.Classifications {
		if _, ok := r.sets[kind][address]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// List returns the members of the named set, sorted.
func (r *Registry) List(kind model.Classification) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.sets[kind]
	addrs := make([]string, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// AllFlagged returns the deduplicated union of all classification sets,
// sorted. An address in several sets appears once.
func (r *Registry) AllFlagged() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	union := make(map[string]struct{})
	for _, set := range r.sets {
		for addr := range set {
			union[addr] = struct{}{}
		}
	}
	addrs := make([]string, 0, len(union))
	for addr := range union {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
