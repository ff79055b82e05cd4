package earley

import (
	"fmt"
	"strings"

	"github.com/dhamidi/earley/grammar"
)

// ItemID indexes an item in a Store.
type ItemID int

// NoItem marks the absence of an item, e.g. in a token cause.
const NoItem ItemID = -1

// Cause is what advanced an item over its last matched symbol: either the
// input token at index Token, or the completed item Item.
type Cause struct {
	Item  ItemID
	Token int
}

// TokenCause returns a cause for the token at index i.
func TokenCause(i int) Cause {
	return Cause{Item: NoItem, Token: i}
}

// ItemCause returns a cause for a completed item.
func ItemCause(id ItemID) Cause {
	return Cause{Item: id, Token: -1}
}

func (c Cause) IsToken() bool {
	return c.Item == NoItem
}

// Edge records one way an item was reached: Pred is the item before the dot
// moved, Cause is what matched the symbol the dot moved over. An item with
// several edges has several derivations.
type Edge struct {
	Pred  ItemID
	Cause Cause
}

// Item is an Earley item (production, dot, origin, end) plus its
// provenance edges. Edges do not take part in the item's identity.
type Item struct {
	ID         ItemID
	Production *grammar.Production
	Dot        int
	Origin     int
	End        int
	Edges      []Edge
}

// IsComplete reports whether the dot is at the end of the production.
func (it *Item) IsComplete() bool {
	return it.Dot >= len(it.Production.RHS)
}

// Next returns the symbol after the dot. ok is false for complete items.
func (it *Item) Next() (sym grammar.Symbol, ok bool) {
	if it.IsComplete() {
		return grammar.Symbol{}, false
	}
	return it.Production.RHS[it.Dot], true
}

func (it *Item) String() string {
	var sb strings.Builder
	sb.WriteString(it.Production.LHS.Name)
	sb.WriteString(" ->")
	for i, sym := range it.Production.RHS {
		if i == it.Dot {
			sb.WriteString(" •")
		}
		sb.WriteByte(' ')
		sb.WriteString(sym.Name)
	}
	if it.IsComplete() {
		sb.WriteString(" •")
	}
	fmt.Fprintf(&sb, "  [%d, %d]", it.Origin, it.End)
	return sb.String()
}

type itemKey struct {
	prod, dot, origin, end int
}

type edgeKey struct {
	item, pred, cause ItemID
	token             int
}

// Store is the arena holding every item of a chart. Items are addressed by
// ItemID and deduplicated by (production, dot, origin, end); adding a known
// item only merges the new edge into it.
type Store struct {
	items []*Item
	index map[itemKey]ItemID
	edges map[edgeKey]struct{}
}

func NewStore() *Store {
	return &Store{
		index: make(map[itemKey]ItemID),
		edges: make(map[edgeKey]struct{}),
	}
}

// Add looks up or creates the item and records edge on it when edge is
// non-nil and not already present. It reports whether the item is new.
func (s *Store) Add(p *grammar.Production, dot, origin, end int, edge *Edge) (ItemID, bool) {
	key := itemKey{prod: p.ID, dot: dot, origin: origin, end: end}
	id, found := s.index[key]
	if !found {
		id = ItemID(len(s.items))
		s.items = append(s.items, &Item{
			ID:         id,
			Production: p,
			Dot:        dot,
			Origin:     origin,
			End:        end,
		})
		s.index[key] = id
	}
	if edge != nil {
		ek := edgeKey{item: id, pred: edge.Pred, cause: edge.Cause.Item, token: edge.Cause.Token}
		if _, dup := s.edges[ek]; !dup {
			s.edges[ek] = struct{}{}
			it := s.items[id]
			it.Edges = append(it.Edges, *edge)
		}
	}
	return id, !found
}

// Lookup returns the item with the given identity, if present.
func (s *Store) Lookup(p *grammar.Production, dot, origin, end int) (*Item, bool) {
	id, ok := s.index[itemKey{prod: p.ID, dot: dot, origin: origin, end: end}]
	if !ok {
		return nil, false
	}
	return s.items[id], true
}

// Item returns the item with the given id.
func (s *Store) Item(id ItemID) *Item {
	return s.items[id]
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// Edges returns the number of distinct provenance edges.
func (s *Store) Edges() int {
	return len(s.edges)
}
