package sqlite

import (
	"sync"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// subscription delivers snapshots for one collection on its own goroutine.
// Snapshots that arrive while a delivery is running are coalesced so the
// callback only ever sees the latest one.
type subscription struct {
	collection string
	onChange   func(types.Snapshot)

	mu      sync.Mutex
	pending *types.Snapshot
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) offer(snap types.Snapshot) {
	s.mu.Lock()
	if s.pending == nil || snap.Version >= s.pending.Version {
		s.pending = &snap
	}
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		s.mu.Unlock()
		if snap == nil {
			continue
		}
		select {
		case <-s.done:
			return
		default:
		}
		s.onChange(*snap)
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// hub fans committed snapshots out to subscriptions.
type hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]*subscription)}
}

// add registers onChange and queues initial as its first delivery.
func (h *hub) add(collection string, onChange func(types.Snapshot), initial types.Snapshot) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, types.ErrBackendDetached
	}

	sub := &subscription{
		collection: collection,
		onChange:   onChange,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	sub.offer(initial)

	h.wg.Add(1)
	go sub.run(&h.wg)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		sub.stop()
	}, nil
}

func (h *hub) publish(snap types.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.collection == snap.Collection {
			sub.offer(snap)
		}
	}
}

// close stops every subscription and waits for in-flight deliveries.
func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[uint64]*subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	h.wg.Wait()
}
