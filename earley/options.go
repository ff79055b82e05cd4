package earley

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

// ErrNonTermination is matched by every error reporting an exhausted step
// or time budget. Cyclic grammars such as X -> X | a have infinitely many
// derivations; the budget turns the endless enumeration into this error.
var ErrNonTermination = errors.New("budget exhausted before the parse terminated")

// BudgetError reports which phase ran out of budget and why. It matches
// ErrNonTermination and, when set, the context error that stopped it.
type BudgetError struct {
	Phase string // "chart" or "forest"
	Steps int
	Err   error // context error, nil when the step budget ran out
}

func (e *BudgetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: stopped after %d steps: %v", e.Phase, e.Steps, e.Err)
	}
	return fmt.Sprintf("%s: step budget of %d exhausted", e.Phase, e.Steps)
}

func (e *BudgetError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNonTermination, e.Err}
	}
	return []error{ErrNonTermination}
}

// Option configures Recognize, NewForest and Parse.
type Option func(*config)

type config struct {
	maxSteps int
	limit    int
	log      commonlog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{log: commonlog.GetLogger("earley")}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxSteps bounds the work of each phase: items processed while
// building the chart, expansion steps while extracting trees.
// Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithLimit makes Parse stop after n trees. Zero means all trees.
func WithLimit(n int) Option {
	return func(c *config) {
		c.limit = n
	}
}

// WithLogger replaces the default "earley" logger.
func WithLogger(log commonlog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// ctxCheckInterval is how many steps pass between context checks.
const ctxCheckInterval = 256

type budget struct {
	ctx   context.Context
	phase string
	max   int
	steps int
	err   error
}

// newBudget treats a nil ctx as context.Background.
func newBudget(ctx context.Context, phase string, max int) *budget {
	if ctx == nil {
		ctx = context.Background()
	}
	return &budget{ctx: ctx, phase: phase, max: max}
}

// step charges one unit of work and reports whether work may continue.
// Once it returns false it keeps returning false.
func (b *budget) step() bool {
	if b.err != nil {
		return false
	}
	if b.max > 0 && b.steps >= b.max {
		b.err = &BudgetError{Phase: b.phase, Steps: b.max}
		return false
	}
	b.steps++
	if b.steps%ctxCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			b.err = &BudgetError{Phase: b.phase, Steps: b.steps, Err: err}
			return false
		}
	}
	return true
}
