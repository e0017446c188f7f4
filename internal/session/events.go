package session

import "sync"

// subscriber queues snapshots for one observer. The bus handler only
// enqueues, so a publish never waits on observer code.
type subscriber struct {
	fn func(Snapshot)

	mu      sync.Mutex
	queue   []Snapshot
	lastSeq uint64
	running bool
}

func newSubscriber(fn func(Snapshot)) *subscriber {
	return &subscriber{fn: fn}
}

func (sub *subscriber) enqueue(snap Snapshot) {
	sub.mu.Lock()
	if snap.seq <= sub.lastSeq {
		sub.mu.Unlock()
		return
	}
	sub.lastSeq = snap.seq
	sub.queue = append(sub.queue, snap)
	if sub.running {
		sub.mu.Unlock()
		return
	}
	sub.running = true
	sub.mu.Unlock()

	go sub.drain()
}

func (sub *subscriber) drain() {
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.running = false
			sub.mu.Unlock()
			return
		}
		snap := sub.queue[0]
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		sub.fn(snap)
	}
}
