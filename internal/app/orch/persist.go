package orch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

// storeLedger orders content-store calls per resource. Tickets are issued
// under Orchestrator.mu, so their sequence follows the order in which the
// in-memory tree changed. Calls for one id run one at a time and a ticket
// older than the last one applied is skipped: the store never goes back
// to older content and a save issued before a delete never lands after it.
type storeLedger struct {
	mu    sync.Mutex
	slots map[string]*storeSlot
}

type storeSlot struct {
	run     sync.Mutex
	applied uint64 // guarded by run

	issued  uint64 // guarded by storeLedger.mu
	holders int    // guarded by storeLedger.mu
}

type storeTicket struct {
	id   string
	seq  uint64
	slot *storeSlot
}

func newStoreLedger() *storeLedger {
	return &storeLedger{slots: make(map[string]*storeSlot)}
}

// issue reserves the next store call for id. Every issued ticket must be
// passed to do exactly once.
func (l *storeLedger) issue(id string) storeTicket {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &storeSlot{}
		l.slots[id] = s
	}
	s.issued++
	s.holders++
	return storeTicket{id: id, seq: s.issued, slot: s}
}

// do runs fn unless a newer ticket for the same id already ran, and
// reports whether fn ran.
func (l *storeLedger) do(t storeTicket, fn func()) bool {
	t.slot.run.Lock()
	ran := t.seq > t.slot.applied
	if ran {
		fn()
		t.slot.applied = t.seq
	}
	t.slot.run.Unlock()

	l.mu.Lock()
	t.slot.holders--
	if t.slot.holders == 0 {
		delete(l.slots, t.id)
	}
	l.mu.Unlock()
	return ran
}

// ticket is issue for a configured store; call it with mu held.
func (o *Orchestrator) ticket(id string) storeTicket {
	if o.Store == nil {
		return storeTicket{}
	}
	return o.writes.issue(id)
}

// persist hands content to the store outside of mu. A save overtaken by a
// newer write or a delete of the same resource is skipped and reported as
// done.
func (o *Orchestrator) persist(ctx context.Context, t storeTicket, content string) (core.SaveResult, error) {
	if o.Store == nil {
		return core.SaveResult{UpdatedAt: time.Now().UTC()}, nil
	}
	var (
		res core.SaveResult
		err error
	)
	ran := o.writes.do(t, func() {
		ctx, cancel := context.WithTimeout(ctx, o.storeTimeout())
		defer cancel()
		res, err = o.Store.Save(ctx, t.id, content)
	})
	if !ran {
		log.Debug().Str("module", "orch").Str("resource", t.id).Uint64("seq", t.seq).Msg("superseded save skipped")
		return core.SaveResult{UpdatedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("resource", t.id).Msg("content store save")
		return core.SaveResult{}, fmt.Errorf("save %s: %w: %w", t.id, domain.ErrPersistFailed, err)
	}
	return res, nil
}

// forget deletes stored content. Each delete waits for the save in flight
// for the same id, if any.
func (o *Orchestrator) forget(ctx context.Context, tickets []storeTicket) {
	if o.Store == nil {
		return
	}
	for _, t := range tickets {
		o.writes.do(t, func() {
			ctx, cancel := context.WithTimeout(ctx, o.storeTimeout())
			defer cancel()
			if err := o.Store.Delete(ctx, t.id); err != nil {
				log.Error().Err(err).Str("module", "orch").Str("resource", t.id).Msg("content store delete")
			}
		})
	}
}

func (o *Orchestrator) storeTimeout() time.Duration {
	if o.StoreTimeout <= 0 {
		return defaultStoreTimeout
	}
	return o.StoreTimeout
}
