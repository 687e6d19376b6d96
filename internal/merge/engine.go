package merge

import (
	"context"
	"fmt"
	"sync"

	"github.com/pumphouse/salesfeed/internal/domain"
	"github.com/pumphouse/salesfeed/internal/repository"
)

// Policy decides what happens when an incoming fact collides with a stored
// one on the dedup key. Re-uploads of corrected weekly reports are routine,
// so the default lets the newer file win; keep-existing is available for
// deployments that prefer to treat re-uploads as no-ops.
type Policy string

const (
	PolicyLastWriteWins Policy = "last-write-wins"
	PolicyKeepExisting  Policy = "keep-existing"
)

// ParsePolicy validates a configured policy string.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyLastWriteWins, PolicyKeepExisting:
		return Policy(s), nil
	case "":
		return PolicyLastWriteWins, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// StoreTransactionError wraps a storage failure during the batch commit.
// The batch is rolled back in full; the file counts as not ingested and is
// safe to retry.
type StoreTransactionError struct {
	Err error
}

func (e StoreTransactionError) Error() string {
	return fmt.Sprintf("store transaction failed: %v", e.Err)
}

func (e StoreTransactionError) Unwrap() error {
	return e.Err
}

// Summary reports what one merged batch changed.
type Summary struct {
	Inserted int
	Updated  int
	Skipped  int
	Warnings []string
}

// Engine reconciles extracted fact batches against the store. Merges for
// different files are serialized so one file's insert/update decisions are
// never computed against a half-committed view of another.
type Engine struct {
	repo   repository.SalesFactRepository
	policy Policy

	mu sync.Mutex
}

// NewEngine wires a merge engine over the fact repository.
func NewEngine(repo repository.SalesFactRepository, policy Policy) *Engine {
	if policy == "" {
		policy = PolicyLastWriteWins
	}
	return &Engine{repo: repo, policy: policy}
}

// Merge applies one file's batch as a single logical transaction and
// reports the insert/update/skip decisions taken.
func (e *Engine) Merge(ctx context.Context, facts []domain.SalesFact, sourceFile string) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var summary Summary
	if len(facts) == 0 {
		return summary, nil
	}

	// Collapse in-batch key collisions: a malformed sheet can repeat a
	// store column, and the later row in file order wins. Reportable, not
	// fatal.
	byKey := make(map[domain.FactKey]domain.SalesFact, len(facts))
	order := make([]domain.FactKey, 0, len(facts))
	for _, fact := range facts {
		fact.SourceFile = sourceFile
		key := fact.Key()
		// Persist the canonical form the key was built from; the store
		// matches rows on the raw columns, so an update against a
		// cosmetically different product or store code would hit nothing.
		fact.Product = key.Product
		fact.StoreCode = key.StoreCode
		if _, dup := byKey[key]; dup {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf(
				"duplicate key in batch (year %d week %d product %q store %s); later row wins",
				key.FiscalYear, key.FiscalWeek, key.Product, key.StoreCode))
		} else {
			order = append(order, key)
		}
		byKey[key] = fact
	}

	existing, err := e.repo.ExistingKeys(ctx, order)
	if err != nil {
		return Summary{}, StoreTransactionError{Err: err}
	}

	var inserts, updates []domain.SalesFact
	for _, key := range order {
		fact := byKey[key]
		if _, found := existing[key]; found {
			if e.policy == PolicyKeepExisting {
				summary.Skipped++
				continue
			}
			updates = append(updates, fact)
			continue
		}
		inserts = append(inserts, fact)
	}

	if err := e.repo.ApplyBatch(ctx, inserts, updates); err != nil {
		return Summary{}, StoreTransactionError{Err: err}
	}

	summary.Inserted = len(inserts)
	summary.Updated = len(updates)
	return summary, nil
}
