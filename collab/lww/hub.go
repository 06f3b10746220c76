package lww

import (
	"encoding/json"
	"sync"
)

// Hub connects replicas in memory. Operations are exchanged explicitly:
// Flush collects the outbox of a replica and queues it for every other
// replica, Deliver applies the queue of a replica. This makes it possible
// to simulate concurrent edits and arbitrary delivery orders.
//
// Operations travel through JSON, as they would over a network. The hub keeps
// a log of every batch flushed, which brings replicas joining late up to date.
type Hub struct {
	mu       sync.Mutex
	replicas []*Replica
	queues   map[string][][]byte
	log      []batch
}

type batch struct {
	origin string
	data   []byte
}

// NewHub creates a hub without replicas.
func NewHub() *Hub {
	return &Hub{queues: make(map[string][][]byte)}
}

// Join connects replicas to the hub. Operations flushed before are applied
// to the joining replicas right away, so that they start from the current
// content of the map.
func (h *Hub) Join(replicas ...*Replica) {
	h.mu.Lock()
	h.replicas = append(h.replicas, replicas...)
	log := append([]batch(nil), h.log...)
	h.mu.Unlock()
	for _, r := range replicas {
		for _, b := range log {
			if b.origin != r.ID() {
				h.apply(r, b.data)
			}
		}
		tracer().Debugf("lww hub: %s joined, replayed %d batches", r.ID(), len(log))
	}
}

// Flush moves the outbox of r into the queues of all other replicas. It
// returns the number of operations flushed.
func (h *Hub) Flush(r *Replica) int {
	ops := r.Outbox()
	if len(ops) == 0 {
		return 0
	}
	data, err := json.Marshal(ops)
	if err != nil {
		tracer().Errorf("lww hub: cannot encode ops of %s: %v", r.ID(), err)
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = append(h.log, batch{origin: r.ID(), data: data})
	for _, other := range h.replicas {
		if other != r {
			h.queues[other.ID()] = append(h.queues[other.ID()], data)
		}
	}
	return len(ops)
}

// Deliver applies the queued operations to r, in the order they were
// flushed. It returns the number of batches delivered.
func (h *Hub) Deliver(r *Replica) int {
	h.mu.Lock()
	batches := h.queues[r.ID()]
	delete(h.queues, r.ID())
	h.mu.Unlock()
	for _, data := range batches {
		h.apply(r, data)
	}
	return len(batches)
}

func (h *Hub) apply(r *Replica, data []byte) {
	var ops []Op
	if err := json.Unmarshal(data, &ops); err != nil {
		tracer().Errorf("lww hub: cannot decode ops for %s: %v", r.ID(), err)
		return
	}
	r.Apply(ops)
}

// Sync flushes and delivers until all replicas are quiet. Applying remote
// operations may cause replicas to write again (e.g. an editor normalizing
// text); Sync gives up after a bounded number of rounds.
func (h *Hub) Sync() {
	for round := 0; round < 16; round++ {
		h.mu.Lock()
		replicas := append([]*Replica(nil), h.replicas...)
		h.mu.Unlock()
		moved := 0
		for _, r := range replicas {
			moved += h.Flush(r)
		}
		for _, r := range replicas {
			moved += h.Deliver(r)
		}
		if moved == 0 {
			return
		}
	}
	tracer().Infof("lww hub: replicas did not settle")
}
