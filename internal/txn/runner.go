package txn

import (
	"context"
	"sync"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Runner serialises every state transition across all components. An operation
// validates and stages inside its closure; ledger ops are applied as one batch and
// state commits run only once that batch has succeeded.
type Runner struct {
	mu      sync.Mutex
	clock   Clock
	ledger  ledger.Ledger
	manager event.Manager
}

func NewRunner(clock Clock, l ledger.Ledger, manager event.Manager) *Runner {
	return &Runner{clock: clock, ledger: l, manager: manager}
}

func (r *Runner) Ledger() ledger.Ledger {
	return r.ledger
}

func (r *Runner) Now() time.Time {
	return r.clock.Now()
}

// Tx collects the effects of one operation.
type Tx struct {
	ctx     context.Context
	id      string
	now     time.Time
	emitter common.Address
	ledger  ledger.Ledger
	ops     []ledger.Op
	events  event.Log
	commits []func()
}

func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) Ledger() ledger.Ledger {
	return tx.ledger
}

func (tx *Tx) Stage(ops ...ledger.Op) {
	tx.ops = append(tx.ops, ops...)
}

func (tx *Tx) Emit(eventType event.Type, args interface{}) {
	tx.events = append(tx.events, event.Event{
		Id:      newId(),
		TxId:    tx.id,
		Type:    eventType,
		Emitter: tx.emitter,
		Time:    tx.now,
		Args:    args,
	})
}

// OnCommit registers a state mutation to apply after the ledger batch succeeds.
func (tx *Tx) OnCommit(fn func()) {
	tx.commits = append(tx.commits, fn)
}

func (r *Runner) Execute(ctx context.Context, emitter common.Address, name string, fn func(tx *Tx) error) (event.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	tx := &Tx{
		ctx:     ctx,
		id:      newId(),
		now:     r.clock.Now(),
		emitter: emitter,
		ledger:  r.ledger,
		events:  make(event.Log, 0),
	}

	if err := fn(tx); err != nil {
		zap.L().With(zap.String("op", name), zap.String("tx", tx.id), zap.Error(err)).Debug("Runner: Operation rejected")
		return nil, err
	}

	if len(tx.ops) != 0 {
		if err := r.ledger.Apply(ctx, tx.ops); err != nil {
			zap.L().With(zap.String("op", name), zap.String("tx", tx.id), zap.Error(err)).Warn("Runner: Ledger batch failed")
			return nil, errors.Wrapf(err, "%s: ledger batch", name)
		}
	}

	for _, commit := range tx.commits {
		commit()
	}

	zap.L().With(
		zap.String("op", name),
		zap.String("tx", tx.id),
		zap.Int("ops", len(tx.ops)),
		zap.Int("events", len(tx.events)),
	).Debug("Runner: Operation committed")

	if r.manager != nil {
		r.manager.Emit(tx.events)
	}

	return tx.events, nil
}

func newId() string {
	u, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return u.String()
}
