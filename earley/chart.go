// Package earley recognizes token sequences against arbitrary context-free
// grammars and enumerates every derivation tree.
//
// Recognize builds the chart: one item set per input position, each closed
// under predict and complete before the next token is scanned. Every item
// lives once in a Store and carries the provenance edges that produced it,
// so ambiguity multiplies edges rather than items. A Forest walks those edges
// backwards from the accepting items and yields trees lazily.
//
// Left recursion, ε-productions and ambiguity need no special treatment.
// Cyclic grammars (X -> X) have infinitely many derivations; bound the work
// with WithMaxSteps or a context deadline.
package earley

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
)

// ItemSet is the set of items ending at one chart position, in the order
// they were discovered.
type ItemSet struct {
	position int
	ids      []ItemID
	store    *Store
}

// Position returns the chart position of the set.
func (s *ItemSet) Position() int {
	return s.position
}

// Len returns the number of items in the set.
func (s *ItemSet) Len() int {
	return len(s.ids)
}

// Items returns the items of the set.
func (s *ItemSet) Items() []*Item {
	items := make([]*Item, len(s.ids))
	for i, id := range s.ids {
		items[i] = s.store.Item(id)
	}
	return items
}

// Chart is the result of recognizing a token sequence: n+1 item sets for n
// tokens, backed by the Store holding their provenance.
type Chart struct {
	grammar *grammar.Grammar
	tokens  []lex.Token
	store   *Store
	sets    []ItemSet
	steps   int
	closed  bool
	err     error
}

// Recognize builds the chart for tokens. Rejection is not an error: check
// Accepted. The error is non-nil only when the step budget or ctx ran out,
// in which case the returned chart is partial and reports no verdict.
func Recognize(ctx context.Context, g *grammar.Grammar, tokens []lex.Token, opts ...Option) (*Chart, error) {
	cfg := newConfig(opts)

	c := &Chart{
		grammar: g,
		tokens:  tokens,
		store:   NewStore(),
		sets:    make([]ItemSet, len(tokens)+1),
	}
	for i := range c.sets {
		c.sets[i] = ItemSet{position: i, store: c.store}
	}

	b := &chartBuilder{
		Chart:   c,
		budget:  newBudget(ctx, "chart", cfg.maxSteps),
		waiting: make([]map[string][]ItemID, len(c.sets)),
		empty:   make([]map[string][]ItemID, len(c.sets)),
	}
	b.run()
	c.steps = b.budget.steps

	if b.budget.err != nil {
		c.err = b.budget.err
		cfg.log.Warningf("chart: %v after %d of %d positions", c.err, c.Furthest(), len(tokens))
		return c, c.err
	}
	c.closed = true
	cfg.log.Debugf("chart: %d tokens, %d items, %d edges, %d steps, accepted=%t",
		len(tokens), c.store.Len(), c.store.Edges(), c.steps, c.Accepted())
	return c, nil
}

// chartBuilder holds the per-position indexes used while closing sets.
// waiting[k][X] lists processed items in set k whose next symbol is X;
// empty[k][X] lists processed complete X items spanning [k, k).
type chartBuilder struct {
	*Chart
	budget  *budget
	waiting []map[string][]ItemID
	empty   []map[string][]ItemID
}

func (b *chartBuilder) run() {
	for _, p := range b.grammar.ProductionsFor(b.grammar.Start().Name) {
		b.add(p, 0, 0, 0, nil)
	}
	for k := range b.sets {
		if k > 0 {
			b.scan(k)
		}
		if !b.close(k) {
			return
		}
		if b.sets[k].Len() == 0 {
			// Nothing can be scanned past an empty set.
			return
		}
	}
}

// add records an item ending at end and appends it to its set when new.
func (b *chartBuilder) add(p *grammar.Production, dot, origin, end int, edge *Edge) {
	id, isNew := b.store.Add(p, dot, origin, end, edge)
	if isNew {
		b.sets[end].ids = append(b.sets[end].ids, id)
	}
}

// scan advances every item in set k-1 expecting a terminal that matches
// token k-1 into set k.
func (b *chartBuilder) scan(k int) {
	tok := b.tokens[k-1]
	for _, id := range b.sets[k-1].ids {
		it := b.store.Item(id)
		next, ok := it.Next()
		if !ok || !next.IsTerminal() || !tok.Matches(next.Name) {
			continue
		}
		b.add(it.Production, it.Dot+1, it.Origin, k, &Edge{Pred: id, Cause: TokenCause(k - 1)})
	}
}

// close processes set k as a worklist until no item is added. It returns
// false when the budget ran out.
func (b *chartBuilder) close(k int) bool {
	b.waiting[k] = make(map[string][]ItemID)
	b.empty[k] = make(map[string][]ItemID)

	for j := 0; j < len(b.sets[k].ids); j++ {
		if !b.budget.step() {
			return false
		}
		it := b.store.Item(b.sets[k].ids[j])
		if it.IsComplete() {
			b.complete(k, it)
			continue
		}
		if next, _ := it.Next(); !next.IsTerminal() {
			b.predict(k, it, next.Name)
		}
	}
	return true
}

// predict adds a fresh item for every production of x and advances it over
// the x items already completed without consuming input at k.
func (b *chartBuilder) predict(k int, it *Item, x string) {
	b.waiting[k][x] = append(b.waiting[k][x], it.ID)
	for _, p := range b.grammar.ProductionsFor(x) {
		b.add(p, 0, k, k, nil)
	}
	for _, c := range b.empty[k][x] {
		b.add(it.Production, it.Dot+1, it.Origin, k, &Edge{Pred: it.ID, Cause: ItemCause(c)})
	}
}

// complete advances every item waiting for c's left-hand side at c's origin.
func (b *chartBuilder) complete(k int, c *Item) {
	x := c.Production.LHS.Name
	if c.Origin == k {
		b.empty[k][x] = append(b.empty[k][x], c.ID)
	}
	for _, w := range b.waiting[c.Origin][x] {
		pred := b.store.Item(w)
		b.add(pred.Production, pred.Dot+1, pred.Origin, k, &Edge{Pred: w, Cause: ItemCause(c.ID)})
	}
}

// Grammar returns the grammar the chart was built for.
func (c *Chart) Grammar() *grammar.Grammar {
	return c.grammar
}

// Tokens returns the recognized input.
func (c *Chart) Tokens() []lex.Token {
	return c.tokens
}

// Store returns the item arena.
func (c *Chart) Store() *Store {
	return c.store
}

// Len returns the number of item sets, one more than the number of tokens.
func (c *Chart) Len() int {
	return len(c.sets)
}

// Set returns the item set at position k.
func (c *Chart) Set(k int) *ItemSet {
	return &c.sets[k]
}

// Item returns the item with the given id.
func (c *Chart) Item(id ItemID) *Item {
	return c.store.Item(id)
}

// Steps returns the work spent building the chart.
func (c *Chart) Steps() int {
	return c.steps
}

// Err returns the budget error that interrupted the chart, if any.
func (c *Chart) Err() error {
	return c.err
}

// Accepting returns the complete start items spanning the whole input.
// A partial chart has none.
func (c *Chart) Accepting() []*Item {
	if !c.closed {
		return nil
	}
	start := c.grammar.Start().Name
	var items []*Item
	for _, it := range c.sets[len(c.sets)-1].Items() {
		if it.Origin == 0 && it.IsComplete() && it.Production.LHS.Name == start {
			items = append(items, it)
		}
	}
	return items
}

// Accepted reports whether the input is in the grammar's language.
func (c *Chart) Accepted() bool {
	return len(c.Accepting()) > 0
}

// Furthest returns the last position whose item set is non-empty. On a
// rejected input the token at this position is the first one that could
// not be scanned.
func (c *Chart) Furthest() int {
	for k := len(c.sets) - 1; k >= 0; k-- {
		if c.sets[k].Len() > 0 {
			return k
		}
	}
	return 0
}

func (c *Chart) String() string {
	var sb strings.Builder
	for k := range c.sets {
		fmt.Fprintf(&sb, "=== %d", k)
		if k > 0 {
			fmt.Fprintf(&sb, " %q", c.tokens[k-1].Literal)
		}
		sb.WriteString(" ===\n")
		for _, it := range c.sets[k].Items() {
			fmt.Fprintf(&sb, "%4d  %s", it.ID, it)
			if len(it.Edges) > 1 {
				fmt.Fprintf(&sb, "  (%d derivations)", len(it.Edges))
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
