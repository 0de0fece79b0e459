// Package livesync feeds backend snapshot pushes into the entity store.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// ErrNotStarted is returned by WaitReady before Start.
var ErrNotStarted = errors.New("live sync is not started")

// Applier replaces one collection of an in-memory view.
type Applier interface {
	Apply(snap types.Snapshot) error
}

// Adapter subscribes to every collection and applies each delivered
// snapshot as a whole replacement.
type Adapter struct {
	sub    types.Subscriber
	store  Applier
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	unsubs  []func()
	ready   map[string]chan struct{}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Adapter that feeds snapshots from sub into store.
func New(sub types.Subscriber, store Applier, opts ...Option) *Adapter {
	a := &Adapter{sub: sub, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start subscribes to all four collections. Calling Start on a running
// adapter does nothing. If any subscription fails, the ones already made
// are cancelled.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	ready := make(map[string]chan struct{}, len(types.CollectionNames))
	var unsubs []func()
	for _, collection := range types.CollectionNames {
		ch := make(chan struct{})
		ready[collection] = ch
		var once sync.Once
		unsub, err := a.sub.Subscribe(collection, func(snap types.Snapshot) {
			if err := a.store.Apply(snap); err != nil {
				a.logger.Error("applying snapshot",
					zap.String("collection", snap.Collection),
					zap.Uint64("version", snap.Version),
					zap.Error(err))
				return
			}
			a.logger.Debug("applied snapshot",
				zap.String("collection", snap.Collection),
				zap.Uint64("version", snap.Version),
				zap.Int("records", len(snap.Records)))
			once.Do(func() { close(ch) })
		})
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return fmt.Errorf("subscribing to %s: %w", collection, err)
		}
		unsubs = append(unsubs, unsub)
	}

	a.unsubs = unsubs
	a.ready = ready
	a.started = true
	return nil
}

// WaitReady blocks until every collection has been applied at least once
// or ctx is done.
func (a *Adapter) WaitReady(ctx context.Context) error {
	a.mu.Lock()
	ready := a.ready
	started := a.started
	a.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	g, gctx := errgroup.WithContext(ctx)
	for collection, ch := range ready {
		g.Go(func() error {
			select {
			case <-ch:
				return nil
			case <-gctx.Done():
				return fmt.Errorf("waiting for %s: %w", collection, gctx.Err())
			}
		})
	}
	return g.Wait()
}

// Stop cancels every subscription. It is idempotent, and a stopped adapter
// can be started again.
func (a *Adapter) Stop() {
	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.ready = nil
	a.started = false
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
