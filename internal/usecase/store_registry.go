package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultStoreIdleTTL       = 30 * time.Minute
	defaultStoreSweepInterval = 5 * time.Minute
)

// StoreRegistry keeps one loaded AppointmentStore per signed-in user.
//
// Stores are created and loaded on first use and evicted by a background loop once
// idle longer than the TTL. Call Stop() during graceful shutdown.
type StoreRegistry struct {
	deps          StoreDependencies
	log           *logrus.Logger
	metrics       *metrics.Metrics
	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stores sync.Map // map[uuid.UUID]*storeEntry

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// storeEntry serializes the first load of a user's store and tracks its last use.
// An entry marked dead has left the map; lookups holding it must start over.
type storeEntry struct {
	mu       sync.Mutex
	store    *AppointmentStore
	dead     bool
	lastUsed atomic.Int64 // Unix timestamp
}

// NewStoreRegistry creates the registry and starts the eviction loop
func NewStoreRegistry(deps StoreDependencies, idleTTL, sweepInterval time.Duration) *StoreRegistry {
	if idleTTL <= 0 {
		idleTTL = defaultStoreIdleTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultStoreSweepInterval
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	r := &StoreRegistry{
		deps:          deps,
		log:           deps.Log,
		metrics:       deps.Metrics,
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		now:           now,
		stopChan:      make(chan struct{}),
	}

	r.wg.Add(1)
	go r.evictionLoop()

	return r
}

// Stop shuts down the eviction loop. Safe to call multiple times.
func (r *StoreRegistry) Stop() {
	if r.stopped.CompareAndSwap(false, true) {
		close(r.stopChan)
		r.wg.Wait()
		r.log.Info("Store registry stopped")
	}
}

// ForSession returns the loaded store of the session user, creating it when needed
func (r *StoreRegistry) ForSession(ctx context.Context, session *entity.Session) (*AppointmentStore, error) {
	if !session.Valid() {
		return nil, ErrSessionRequired
	}

	for {
		value, _ := r.stores.LoadOrStore(session.UserID, &storeEntry{})
		entry := value.(*storeEntry)

		store, live, err := r.storeOf(ctx, entry, session)
		if !live {
			continue
		}
		return store, err
	}
}

// storeOf returns the store held by entry, loading it on first use. live is false when
// the entry was evicted before the lock was taken.
func (r *StoreRegistry) storeOf(ctx context.Context, entry *storeEntry, session *entity.Session) (*AppointmentStore, bool, error) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.dead {
		return nil, false, nil
	}
	entry.lastUsed.Store(r.now().Unix())

	if entry.store != nil {
		return entry.store, true, nil
	}

	store, err := NewAppointmentStore(session, r.deps)
	if err != nil {
		return nil, true, err
	}
	if err := store.Load(ctx); err != nil {
		return nil, true, err
	}

	entry.store = store
	r.metrics.SetActiveStores(r.count())
	r.log.Debugf("Loaded appointment store for user %s", session.UserID)
	return store, true, nil
}

// Evict drops the store of a user, e.g. on logout. It waits for a load in progress.
func (r *StoreRegistry) Evict(userID uuid.UUID) {
	value, ok := r.stores.Load(userID)
	if !ok {
		return
	}
	entry := value.(*storeEntry)

	entry.mu.Lock()
	r.retireLocked(userID, entry)
	entry.mu.Unlock()

	r.metrics.SetActiveStores(r.count())
}

// retireLocked marks entry dead and removes it. The caller holds entry.mu.
func (r *StoreRegistry) retireLocked(key any, entry *storeEntry) {
	entry.dead = true
	r.stores.CompareAndDelete(key, entry)
}

// Len returns the number of stores held
func (r *StoreRegistry) Len() int {
	return r.count()
}

func (r *StoreRegistry) count() int {
	n := 0
	r.stores.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *StoreRegistry) evictionLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			r.log.Debug("Store eviction goroutine stopping")
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

// evictIdle removes stores unused for longer than the TTL. An entry that is locked is in
// use and skipped.
func (r *StoreRegistry) evictIdle() int {
	cutoff := r.now().Add(-r.idleTTL).Unix()
	var evicted int

	r.stores.Range(func(key, value any) bool {
		entry, ok := value.(*storeEntry)
		if !ok {
			return true
		}

		if entry.mu.TryLock() {
			if !entry.dead && entry.lastUsed.Load() < cutoff {
				r.retireLocked(key, entry)
				evicted++
			}
			entry.mu.Unlock()
		}
		return true
	})

	if evicted > 0 {
		r.metrics.SetActiveStores(r.count())
		r.log.Debugf("Evicted %d idle appointment stores", evicted)
	}
	return evicted
}
