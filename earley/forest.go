package earley

import (
	"context"
	"iter"
)

// Forest enumerates the parse trees recorded in a chart.
//
// Trees are not shared in a packed representation: for a complete item the
// set of trees is the union over its edges of (trees of the cause) ×
// (trees of the predecessor), expanded right to left. Highly ambiguous
// inputs can have exponentially many trees, which is why they are produced
// one at a time.
type Forest struct {
	chart *Chart
	cfg   config
}

// NewForest returns the forest of chart. WithMaxSteps bounds each
// enumeration started by Trees.
func NewForest(chart *Chart, opts ...Option) *Forest {
	return &Forest{chart: chart, cfg: newConfig(opts)}
}

// Trees returns a lazy sequence of the parse trees, with a nil error for
// every tree. If the chart is partial or the budget runs out, the sequence
// ends with a single (nil, err) pair. Each call starts a fresh enumeration.
func (f *Forest) Trees(ctx context.Context) iter.Seq2[*Node, error] {
	return func(yield func(*Node, error) bool) {
		if err := f.chart.Err(); err != nil {
			yield(nil, err)
			return
		}
		x := &extractor{
			chart:  f.chart,
			budget: newBudget(ctx, "forest", f.cfg.maxSteps),
		}
		for _, it := range f.chart.Accepting() {
			if !x.expand(it.ID, func(n *Node) bool { return yield(n, nil) }) {
				break
			}
		}
		if err := x.budget.err; err != nil {
			f.cfg.log.Warningf("forest: %v", err)
			yield(nil, err)
		}
	}
}

// Collect gathers up to limit trees, or all of them when limit is zero.
// Trees found before an error are returned along with it.
func (f *Forest) Collect(ctx context.Context, limit int) ([]*Node, error) {
	var trees []*Node
	for tree, err := range f.Trees(ctx) {
		if err != nil {
			return trees, err
		}
		trees = append(trees, tree)
		if limit > 0 && len(trees) >= limit {
			break
		}
	}
	return trees, nil
}

// Count counts trees without retaining them, stopping at limit when it is
// positive.
func (f *Forest) Count(ctx context.Context, limit int) (int, error) {
	n := 0
	for _, err := range f.Trees(ctx) {
		if err != nil {
			return n, err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return n, nil
}

type extractor struct {
	chart  *Chart
	budget *budget
}

// expand yields every tree of the complete item id. It returns false when
// the consumer stopped or the budget ran out.
func (x *extractor) expand(id ItemID, yield func(*Node) bool) bool {
	if !x.budget.step() {
		return false
	}
	it := x.chart.Item(id)
	return x.derive(it, func(children []*Node) bool {
		return yield(&Node{
			Symbol:     it.Production.LHS,
			Production: it.Production,
			Children:   children,
			Start:      it.Origin,
			End:        it.End,
		})
	})
}

// derive yields every child list for the symbols before the dot of it.
// Each edge fixes the last child; the predecessor supplies the prefix.
func (x *extractor) derive(it *Item, yield func([]*Node) bool) bool {
	if it.Dot == 0 {
		return yield(nil)
	}
	for _, e := range it.Edges {
		if !x.budget.step() {
			return false
		}
		pred := x.chart.Item(e.Pred)
		withLast := func(last *Node) bool {
			return x.derive(pred, func(prefix []*Node) bool {
				return yield(extend(prefix, last))
			})
		}
		var more bool
		if e.Cause.IsToken() {
			more = withLast(x.leaf(it, e.Cause.Token))
		} else {
			more = x.expand(e.Cause.Item, withLast)
		}
		if !more {
			return false
		}
	}
	return true
}

func (x *extractor) leaf(it *Item, i int) *Node {
	tok := x.chart.tokens[i]
	return &Node{
		Symbol: it.Production.RHS[it.Dot-1],
		Token:  &tok,
		Start:  i,
		End:    i + 1,
	}
}

// extend returns a fresh slice so that sibling trees never alias.
func extend(prefix []*Node, last *Node) []*Node {
	children := make([]*Node, len(prefix)+1)
	copy(children, prefix)
	children[len(prefix)] = last
	return children
}
