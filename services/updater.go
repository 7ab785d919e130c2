package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"budget-tracker/currency"
	"budget-tracker/models"
)

// A rate younger than this is considered fresh and not refetched.
const rateFreshFor = time.Hour

// ErrPersistFailed marks a refresh that fetched a rate but could not write
// it to the store. Callers use it to tell write failures apart from
// rate-source failures.
var ErrPersistFailed = errors.New("failed to persist rate")

// RateSource fetches the base→target conversion rate.
type RateSource interface {
	FetchRate(ctx context.Context, base, target string) (float64, error)
}

// SnapshotStore is the slice of the user store the updater needs.
type SnapshotStore interface {
	Users() ([]models.User, error)
	GetSnapshot(userID string) (*models.LedgerSnapshot, error)
	SaveSnapshot(userID string, snap models.LedgerSnapshot) error
}

// Broadcaster pushes a redisplay signal to a user's connected clients.
type Broadcaster interface {
	NotifyUser(userID, event string)
}

type UpdaterState int

const (
	StateIdle UpdaterState = iota
	StateFetching
	StateFresh
	StateStale
	StateFailed
)

func (s UpdaterState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RateUpdater keeps each user's exchange rate fresh: an hourly sweep over
// all users plus forced refreshes from the manual trigger and currency
// changes. One fetch is in flight at a time; a trigger that arrives while
// fetching is a no-op.
type RateUpdater struct {
	source RateSource
	store  SnapshotStore
	notify Broadcaster

	mu       sync.Mutex
	state    UpdaterState
	fetching bool
}

func NewRateUpdater(source RateSource, store SnapshotStore, notify Broadcaster) *RateUpdater {
	return &RateUpdater{source: source, store: store, notify: notify, state: StateIdle}
}

func (u *RateUpdater) State() UpdaterState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *RateUpdater) setState(s UpdaterState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}

// Stale reports whether a rate stamped at lastUpdate (unix ms, nil = never)
// needs refetching.
func Stale(lastUpdate *int64, now time.Time) bool {
	if lastUpdate == nil {
		return true
	}
	return now.Sub(time.UnixMilli(*lastUpdate)) >= rateFreshFor
}

// RefreshUser fetches a fresh rate for the user's currency pair and persists
// it. With force unset the fetch is skipped while the stored rate is under an
// hour old. On failure the prior rate stays in place and nothing is persisted.
func (u *RateUpdater) RefreshUser(ctx context.Context, userID string, force bool) error {
	snap, err := u.store.GetSnapshot(userID)
	if err != nil {
		return err
	}
	if !force && !Stale(snap.LastRateUpdate, time.Now()) {
		u.setState(StateFresh)
		return nil
	}

	u.mu.Lock()
	if u.fetching {
		u.mu.Unlock()
		return nil
	}
	u.fetching = true
	u.state = StateFetching
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.fetching = false
		u.mu.Unlock()
	}()

	rate, err := u.source.FetchRate(ctx, snap.PrimaryCurrency, snap.SecondaryCurrency)
	if err != nil {
		u.setState(StateFailed)
		return fmt.Errorf("rate fetch %s/%s: %w", snap.PrimaryCurrency, snap.SecondaryCurrency, err)
	}

	pair := currency.Pair{
		Primary:   snap.PrimaryCurrency,
		Secondary: snap.SecondaryCurrency,
		Rate:      snap.ExchangeRate,
	}
	if err := pair.SetRate(rate); err != nil {
		u.setState(StateFailed)
		return err
	}

	now := time.Now().UnixMilli()
	snap.ExchangeRate = pair.Rate
	snap.LastRateUpdate = &now
	if err := u.store.SaveSnapshot(userID, *snap); err != nil {
		u.setState(StateFailed)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	u.setState(StateFresh)
	if u.notify != nil {
		u.notify.NotifyUser(userID, "rate_updated")
	}
	return nil
}

// Run sweeps all users once immediately and then every hour, refreshing the
// pairs whose rate has gone stale. Returns when ctx is cancelled.
func (u *RateUpdater) Run(ctx context.Context) {
	ticker := time.NewTicker(rateFreshFor)
	defer ticker.Stop()

	u.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.sweep(ctx)
		}
	}
}

func (u *RateUpdater) sweep(ctx context.Context) {
	users, err := u.store.Users()
	if err != nil {
		log.Printf("❌ Rate sweep failed: %v", err)
		return
	}
	for _, user := range users {
		if !Stale(user.Data.LastRateUpdate, time.Now()) {
			continue
		}
		u.setState(StateStale)
		if err := u.RefreshUser(ctx, user.ID, false); err != nil {
			log.Printf("⚠️ Rate refresh for %s failed: %v", user.Username, err)
		}
	}
}

// FreshnessLabel renders how long ago the rate was updated: minutes under an
// hour, whole hours after that, both floored.
func FreshnessLabel(lastUpdate *int64, now time.Time) string {
	if lastUpdate == nil {
		return "never"
	}
	minutes := int(now.Sub(time.UnixMilli(*lastUpdate)).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	return fmt.Sprintf("%d hours ago", minutes/60)
}
