package runstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

// Tracker persists run progress and reads the cooperative cancellation flag
// for one account's namespace. The orchestrating run exclusively owns these
// keys for the duration of a run; external actors only ever set the flag.
type Tracker struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

// NewTracker wires the key-value store.
func NewTracker(store ports.KeyValueStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// WriteProgress overwrites the fixed progress key for the account.
func (t *Tracker) WriteProgress(ctx context.Context, account string, p domain.Progress) error {
	ns := ports.Namespace{AccountID: account, Category: ports.CategoryProgress}
	if err := t.store.Put(ctx, ns, ports.KeyCurrent, p); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

// Progress reads the last written progress update.
func (t *Tracker) Progress(ctx context.Context, account string) (domain.Progress, error) {
	var p domain.Progress
	ns := ports.Namespace{AccountID: account, Category: ports.CategoryProgress}
	if err := t.store.Get(ctx, ns, ports.KeyCurrent, &p); err != nil {
		return domain.Progress{}, fmt.Errorf("read progress: %w", err)
	}
	return p, nil
}

// Cancelled reports whether the account's cancellation flag is set. A
// missing flag means not cancelled.
func (t *Tracker) Cancelled(ctx context.Context, account string) (bool, error) {
	var flag domain.ControlFlag
	ns := ports.Namespace{AccountID: account, Category: ports.CategoryControl}
	err := t.store.Get(ctx, ns, ports.KeyCurrent, &flag)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cancellation flag: %w", err)
	}
	return flag.Cancelled, nil
}

// RequestCancel sets the cancellation flag; a running discovery observes it
// at its next inter-candidate check.
func (t *Tracker) RequestCancel(ctx context.Context, account string) error {
	ns := ports.Namespace{AccountID: account, Category: ports.CategoryControl}
	if err := t.store.Put(ctx, ns, ports.KeyCurrent, domain.ControlFlag{Cancelled: true}); err != nil {
		return fmt.Errorf("request cancel: %w", err)
	}
	return nil
}

// ClearCancel removes the flag so the next run starts uncancelled.
func (t *Tracker) ClearCancel(ctx context.Context, account string) error {
	ns := ports.Namespace{AccountID: account, Category: ports.CategoryControl}
	if err := t.store.Delete(ctx, ns, ports.KeyCurrent); err != nil {
		return fmt.Errorf("clear cancel: %w", err)
	}
	return nil
}
