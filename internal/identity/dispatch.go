package identity

import (
	"sync"

	"github.com/theirongolddev/finlens/internal/model"
)

type delivery struct {
	target   int // 0 means every listener
	identity *model.Identity
}

// dispatcher fans state changes out to listeners from a single goroutine, so
// listeners never run concurrently with each other.
type dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]StateFunc

	queue chan delivery
	done  chan struct{}
	once  sync.Once
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		listeners: make(map[int]StateFunc),
		queue:     make(chan delivery, 64),
		done:      make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	for {
		select {
		case <-d.done:
			return
		case dv := <-d.queue:
			for _, fn := range d.targets(dv.target) {
				fn(cloneIdentity(dv.identity))
			}
		}
	}
}

func (d *dispatcher) targets(id int) []StateFunc {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id != 0 {
		if fn, ok := d.listeners[id]; ok {
			return []StateFunc{fn}
		}
		return nil
	}
	out := make([]StateFunc, 0, len(d.listeners))
	for i := 1; i <= d.nextID; i++ {
		if fn, ok := d.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (d *dispatcher) add(fn StateFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.listeners[d.nextID] = fn
	return d.nextID
}

func (d *dispatcher) remove(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, id)
}

func (d *dispatcher) send(target int, ident *model.Identity) {
	select {
	case <-d.done:
	case d.queue <- delivery{target: target, identity: cloneIdentity(ident)}:
	}
}

func (d *dispatcher) close() {
	d.once.Do(func() { close(d.done) })
}

func cloneIdentity(i *model.Identity) *model.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
