package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// deleteFunc performs the actual deletion once the undo window closes.
type deleteFunc func(ctx context.Context) error

// pendingOp is one scheduled deletion.
type pendingOp struct {
	id       string
	entityID string
	timer    *time.Timer
}

// PendingDeletes schedules deletions after an undo window and lets
// callers cancel them. At most one pending delete exists per entity id;
// re-scheduling the same entity cancels the earlier timer (last action
// wins).
type PendingDeletes struct {
	mu       sync.Mutex
	delay    time.Duration
	ops      map[string]*pendingOp // op id -> op
	byEntity map[string]string     // entity id -> op id
	log      logger.Logger
}

// NewPendingDeletes creates a manager with the given undo window.
func NewPendingDeletes(delay time.Duration, log logger.Logger) *PendingDeletes {
	return &PendingDeletes{
		delay:    delay,
		ops:      make(map[string]*pendingOp),
		byEntity: make(map[string]string),
		log:      log,
	}
}

// Schedule queues fn to run after the undo window and returns the
// operation id used to cancel it.
func (p *PendingDeletes) Schedule(entityID string, fn deleteFunc) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-triggering a delete for the same entity resets the window.
	if prev, ok := p.byEntity[entityID]; ok {
		if op, ok := p.ops[prev]; ok {
			op.timer.Stop()
			delete(p.ops, prev)
		}
	}

	op := &pendingOp{id: uuid.NewString(), entityID: entityID}
	op.timer = time.AfterFunc(p.delay, func() { p.fire(op, fn) })
	p.ops[op.id] = op
	p.byEntity[entityID] = op.id
	metrics.UpdatePendingDeletes(len(p.ops))
	return op.id
}

func (p *PendingDeletes) fire(op *pendingOp, fn deleteFunc) {
	p.mu.Lock()
	if _, ok := p.ops[op.id]; !ok {
		// Cancelled between timer fire and lock acquisition.
		p.mu.Unlock()
		return
	}
	delete(p.ops, op.id)
	delete(p.byEntity, op.entityID)
	metrics.UpdatePendingDeletes(len(p.ops))
	p.mu.Unlock()

	ctx := context.Background()
	if err := fn(ctx); err != nil {
		p.log.Error(ctx, "deferred delete failed",
			logger.String("entity_id", op.entityID), logger.Error(err))
		return
	}
	metrics.RecordDeleteExecuted()
}

// Cancel stops a pending deletion. Returns ErrNoPending when the window
// already closed or the id is unknown.
func (p *PendingDeletes) Cancel(opID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	op, ok := p.ops[opID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPending, opID)
	}
	op.timer.Stop()
	delete(p.ops, op.id)
	delete(p.byEntity, op.entityID)
	metrics.UpdatePendingDeletes(len(p.ops))
	metrics.RecordDeleteCancelled()
	return nil
}

// Len returns the number of pending operations.
func (p *PendingDeletes) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ops)
}

// StopAll cancels every pending timer without running the deletions.
// Used on shutdown.
func (p *PendingDeletes) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, op := range p.ops {
		op.timer.Stop()
		delete(p.ops, id)
		delete(p.byEntity, op.entityID)
	}
	metrics.UpdatePendingDeletes(0)
}
