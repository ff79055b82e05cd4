package earley

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
)

const expressionGrammar = `
EXP
EXP -> EXP + EXP
EXP -> EXP * EXP
EXP -> EXP - EXP
EXP -> EXP / EXP
EXP -> ( EXP )
EXP -> n
`

const nlpGrammar = `
S
S -> NP VP
VP -> VP PP
VP -> V NP
VP -> V
PP -> P NP
NP -> DET N
NP -> N
NP -> PN
NP -> DET A N
NP -> A NP
A -> ADV A
A -> A A
ADV -> t o o
ADV -> v e r y
ADV -> q u i t e
PN -> s h e
PN -> h e
A -> f r e s h
A -> t a s t y
A -> s i l v e r
N -> f i s h
N -> f o r k
N -> a p p l e
V -> e a t s
DET -> a
DET -> a n
DET -> t h e
P -> w i t h
`

func mustGrammar(t *testing.T, text string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.ParseString(text)
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	return g
}

// parseAll parses input one character per token and checks that every tree
// reproduces the input.
func parseAll(t *testing.T, g *grammar.Grammar, input string) []*Node {
	t.Helper()
	trees, err := ParseString(context.Background(), g, input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	for _, tree := range trees {
		if got := tree.Yield(); got != input {
			t.Errorf("tree %s yields %q, want %q", tree, got, input)
		}
	}
	return trees
}

func treeStrings(trees []*Node) []string {
	strs := make([]string, len(trees))
	for i, tree := range trees {
		strs[i] = tree.String()
	}
	sort.Strings(strs)
	return strs
}

func TestParse_AmbiguousExpression(t *testing.T) {
	g := mustGrammar(t, `
		EXP
		EXP -> EXP + EXP
		EXP -> EXP * EXP
		EXP -> n
	`)

	got := treeStrings(parseAll(t, g, "n+n*n"))
	want := []string{
		"(EXP (EXP (EXP n) + (EXP n)) * (EXP n))",
		"(EXP (EXP n) + (EXP (EXP n) * (EXP n)))",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trees (-want +got):\n%s", diff)
	}
}

func TestParse_Unambiguous(t *testing.T) {
	g := mustGrammar(t, `
		S
		S -> a S b
		S ->
	`)

	got := treeStrings(parseAll(t, g, "aabb"))
	want := []string{"(S a (S a (S) b) b)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trees (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	t.Run("nullable start", func(t *testing.T) {
		g := mustGrammar(t, "S\nS -> a S b\nS ->")
		trees := parseAll(t, g, "")
		if len(trees) != 1 {
			t.Fatalf("got %d trees, want 1", len(trees))
		}
		if leaves := trees[0].Leaves(); len(leaves) != 0 {
			t.Errorf("got leaves %v, want none", leaves)
		}
	})

	t.Run("not nullable", func(t *testing.T) {
		g := mustGrammar(t, "S\nS -> a S b\nS -> a b")
		if trees := parseAll(t, g, ""); len(trees) != 0 {
			t.Errorf("got %d trees, want 0", len(trees))
		}
	})
}

func TestParse_Rejection(t *testing.T) {
	g := mustGrammar(t, "EXP\nEXP -> EXP + EXP\nEXP -> n")

	for _, input := range []string{"x", "n+", "+n", "nn", "n+x"} {
		t.Run(input, func(t *testing.T) {
			chart, err := Recognize(context.Background(), g, lex.Chars(input))
			if err != nil {
				t.Fatalf("recognize: %v", err)
			}
			if chart.Accepted() {
				t.Errorf("chart accepted %q", input)
			}
			if trees := parseAll(t, g, input); len(trees) != 0 {
				t.Errorf("got %d trees, want 0", len(trees))
			}
		})
	}
}

func TestParse_TreeCounts(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
		input   string
		trees   int
	}{
		{"expression", expressionGrammar, "(n+n+(n*n)-n/n)", 14},
		{"expression long", expressionGrammar, "n*n+n+(n+(n*n+(n)-n-(n-((n)))))", 70},
		{"expression rejected", expressionGrammar, "((n)+n-)", 0},
		{"expression nested", expressionGrammar, "(((n)*(((n)+(((n)))))))", 1},
		{"palindrome even", "S\nS -> a S a\nS -> b S b\nS ->\nS -> a\nS -> b", "abba", 1},
		{"palindrome rejected", "S\nS -> a S a\nS -> b S b\nS ->\nS -> a\nS -> b", "aabab", 0},
		{"palindrome odd", "S\nS -> a S a\nS -> b S b\nS ->\nS -> a\nS -> b", "aabaa", 1},
		{"parentheses", "S\nS -> ( S ) S\nS ->", "(()()((()())))", 1},
		{"parentheses sequence", "S\nS -> ( S ) S\nS ->", "(()(())()((()())))()()", 1},
		{"parentheses unbalanced", "S\nS -> ( S ) S\nS ->", "(()(()))((()())))()()", 0},
		{"mutual recursion", "S\nS -> A B\nS -> B\nA -> B A\nA -> a\nB -> A\nB -> b", "bab", 1},
		{"repeated rule", "S\nS -> A A\nA -> a A\nA -> b\nA -> a A\nB -> b", "bab", 1},
		{"empty chain", "S\nS -> a b C d e\nC -> D\nD -> E\nE ->", "abde", 1},
		{"catalan 6", "S\nS -> S S\nS -> a", "aaaaaa", 42},
		{"catalan 7", "S\nS -> S S\nS -> a", "aaaaaaa", 132},
		{"two empty derivations", "S\nS -> A\nS ->\nA ->", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrammar(t, tt.grammar)
			trees := parseAll(t, g, tt.input)
			if len(trees) != tt.trees {
				t.Errorf("got %d trees, want %d", len(trees), tt.trees)
			}
			strs := treeStrings(trees)
			for i := 1; i < len(strs); i++ {
				if strs[i] == strs[i-1] {
					t.Errorf("duplicate tree %s", strs[i])
				}
			}
		})
	}
}

func TestParse_NaturalLanguage(t *testing.T) {
	g := mustGrammar(t, nlpGrammar)

	tests := []struct {
		sentence string
		trees    int
	}{
		{"sheeats", 1},
		{"sheeatsanapple", 1},
		{"sheeatsfreshtastyapple", 2},
		{"sheeatsafish", 1},
		{"sheeatsafishwithafork", 1},
		{"sheeatsafishwithasilverfork", 1},
		{"sheeatsaquitefreshfishwithasilverfork", 1},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			if trees := parseAll(t, g, tt.sentence); len(trees) != tt.trees {
				t.Errorf("got %d trees, want %d", len(trees), tt.trees)
			}
		})
	}
}

func TestParse_WordTokens(t *testing.T) {
	g := grammar.MustNew("stmt", []grammar.Rule{
		{LHS: "stmt", RHS: []grammar.Symbol{grammar.T("let"), grammar.T("Identifier"), grammar.T("="), grammar.NT("expr")}},
		{LHS: "expr", RHS: []grammar.Symbol{grammar.T("Number")}},
		{LHS: "expr", RHS: []grammar.Symbol{grammar.T("Identifier")}},
	})

	tokens := []lex.Token{
		{Kind: "Keyword", Literal: "let"},
		{Kind: "Identifier", Literal: "x"},
		{Kind: "Operator", Literal: "="},
		{Kind: "Number", Literal: "42"},
	}

	trees, err := Parse(context.Background(), g, tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := treeStrings(trees)
	want := []string{"(stmt let x = (expr 42))"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trees (-want +got):\n%s", diff)
	}
	if trees[0].Children[1].Symbol != grammar.T("Identifier") {
		t.Errorf("leaf symbol = %v, want Identifier", trees[0].Children[1].Symbol)
	}
}

func TestParse_Limit(t *testing.T) {
	g := mustGrammar(t, "S\nS -> S S\nS -> a")

	trees, err := ParseString(context.Background(), g, "aaaaaaa", WithLimit(5))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(trees) != 5 {
		t.Errorf("got %d trees, want 5", len(trees))
	}
}

func TestForest_Lazy(t *testing.T) {
	g := mustGrammar(t, "S\nS -> S S\nS -> a")
	// 16 tokens admit Catalan(15) = 9694845 trees; taking three must not
	// enumerate them all.
	chart, err := Recognize(context.Background(), g, lex.Chars("aaaaaaaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	forest := NewForest(chart, WithMaxSteps(10000))
	trees, err := forest.Collect(context.Background(), 3)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(trees) != 3 {
		t.Errorf("got %d trees, want 3", len(trees))
	}
}

func TestForest_Restartable(t *testing.T) {
	g := mustGrammar(t, expressionGrammar)
	chart, err := Recognize(context.Background(), g, lex.Chars("(n+n+(n*n)-n/n)"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	forest := NewForest(chart)

	first, err := forest.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	second, err := forest.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if diff := cmp.Diff(treeStrings(first), treeStrings(second)); diff != "" {
		t.Errorf("second enumeration differs (-first +second):\n%s", diff)
	}
	if n, _ := forest.Count(context.Background(), 0); n != 14 {
		t.Errorf("Count = %d, want 14", n)
	}
}

func TestParse_CyclicGrammarBudget(t *testing.T) {
	g := mustGrammar(t, "X\nX -> X\nX -> a")

	run := func() ([]string, error) {
		chart, err := Recognize(context.Background(), g, lex.Chars("a"), WithMaxSteps(1000))
		if err != nil {
			t.Fatalf("recognize: %v", err)
		}
		if !chart.Accepted() {
			t.Fatalf("chart rejected a derivable input")
		}
		trees, err := NewForest(chart, WithMaxSteps(1000)).Collect(context.Background(), 0)
		return treeStrings(trees), err
	}

	first, err := run()
	if !errors.Is(err, ErrNonTermination) {
		t.Fatalf("err = %v, want ErrNonTermination", err)
	}
	var berr *BudgetError
	if !errors.As(err, &berr) || berr.Phase != "forest" {
		t.Errorf("err = %#v, want forest BudgetError", err)
	}
	if len(first) == 0 {
		t.Errorf("no trees before the budget ran out")
	}

	second, err := run()
	if !errors.Is(err, ErrNonTermination) {
		t.Fatalf("second run err = %v, want ErrNonTermination", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("bounded runs differ (-first +second):\n%s", diff)
	}
}

func TestParse_SelfLoopOnlyRejects(t *testing.T) {
	g := mustGrammar(t, "X\nX -> X")

	for _, input := range []string{"", "a"} {
		trees, err := ParseString(context.Background(), g, input, WithMaxSteps(1000))
		if err != nil {
			t.Errorf("parse %q: %v", input, err)
		}
		if len(trees) != 0 {
			t.Errorf("parse %q: got %d trees, want 0", input, len(trees))
		}
	}
}

func TestRecognize_ChartBudget(t *testing.T) {
	g := mustGrammar(t, "S\nS -> S S\nS -> a")

	chart, err := Recognize(context.Background(), g, lex.Chars("aaaaaaaaaa"), WithMaxSteps(20))
	if !errors.Is(err, ErrNonTermination) {
		t.Fatalf("err = %v, want ErrNonTermination", err)
	}
	if chart.Accepted() {
		t.Errorf("partial chart reports acceptance")
	}
	if got := chart.Steps(); got != 20 {
		t.Errorf("Steps = %d, want the whole budget of 20", got)
	}
	trees, err := NewForest(chart).Collect(context.Background(), 0)
	if !errors.Is(err, ErrNonTermination) || len(trees) != 0 {
		t.Errorf("forest of partial chart = %d trees, %v", len(trees), err)
	}
}

func TestRecognize_ContextCanceled(t *testing.T) {
	g := mustGrammar(t, "S\nS -> S S\nS -> a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := make([]byte, 64)
	for i := range input {
		input[i] = 'a'
	}
	_, err := Recognize(ctx, g, lex.Chars(string(input)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !errors.Is(err, ErrNonTermination) {
		t.Errorf("err = %v, want ErrNonTermination", err)
	}
}

func TestRecognize_ChartInvariants(t *testing.T) {
	g := mustGrammar(t, expressionGrammar)
	input := "n*n+(n-n)/n"

	chart, err := Recognize(context.Background(), g, lex.Chars(input))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if chart.Len() != len(input)+1 {
		t.Fatalf("chart has %d sets, want %d", chart.Len(), len(input)+1)
	}

	for k := 0; k < chart.Len(); k++ {
		seen := make(map[[3]int]bool)
		for _, it := range chart.Set(k).Items() {
			if it.End != k {
				t.Errorf("set %d holds %s", k, it)
			}
			key := [3]int{it.Production.ID, it.Dot, it.Origin}
			if seen[key] {
				t.Errorf("set %d holds %s twice", k, it)
			}
			seen[key] = true

			if it.Dot > 0 && len(it.Edges) == 0 {
				t.Errorf("advanced item %s has no provenance", it)
			}
			for _, e := range it.Edges {
				pred := chart.Item(e.Pred)
				if pred.End > it.End || pred.Production != it.Production || pred.Dot != it.Dot-1 {
					t.Errorf("item %s has bad predecessor %s", it, pred)
				}
				if e.Cause.IsToken() {
					if e.Cause.Token != pred.End || e.Cause.Token+1 != it.End {
						t.Errorf("item %s has token cause %d", it, e.Cause.Token)
					}
					continue
				}
				cause := chart.Item(e.Cause.Item)
				if !cause.IsComplete() || cause.Origin != pred.End || cause.End != it.End {
					t.Errorf("item %s has bad cause %s", it, cause)
				}
			}
		}
	}
}

func TestChart_Furthest(t *testing.T) {
	g := mustGrammar(t, "EXP\nEXP -> EXP + EXP\nEXP -> n")

	chart, err := Recognize(context.Background(), g, lex.Chars("n+n+x+n"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if chart.Accepted() {
		t.Fatal("chart accepted invalid input")
	}
	if got := chart.Furthest(); got != 4 {
		t.Errorf("Furthest() = %d, want 4", got)
	}
}

func TestStore_MergesEdges(t *testing.T) {
	g := mustGrammar(t, "S\nS -> a")
	p := g.Productions()[0]
	s := NewStore()

	pred, isNew := s.Add(p, 0, 0, 0, nil)
	if !isNew {
		t.Fatal("first add should create the item")
	}
	id, isNew := s.Add(p, 1, 0, 1, &Edge{Pred: pred, Cause: TokenCause(0)})
	if !isNew {
		t.Fatal("advanced item should be new")
	}
	again, isNew := s.Add(p, 1, 0, 1, &Edge{Pred: pred, Cause: TokenCause(0)})
	if isNew || again != id {
		t.Errorf("re-adding returned (%d, %t), want (%d, false)", again, isNew, id)
	}
	if n := len(s.Item(id).Edges); n != 1 {
		t.Errorf("item has %d edges, want 1", n)
	}
	s.Add(p, 1, 0, 1, &Edge{Pred: pred, Cause: ItemCause(pred)})
	if n := len(s.Item(id).Edges); n != 2 {
		t.Errorf("item has %d edges after a new derivation, want 2", n)
	}
	if s.Len() != 2 || s.Edges() != 2 {
		t.Errorf("store has %d items and %d edges, want 2 and 2", s.Len(), s.Edges())
	}
	if it, ok := s.Lookup(p, 1, 0, 1); !ok || it.ID != id {
		t.Errorf("Lookup = %v, %t", it, ok)
	}
}

func TestNode_Equal(t *testing.T) {
	g := mustGrammar(t, "EXP\nEXP -> EXP + EXP\nEXP -> n")
	chart, err := Recognize(context.Background(), g, lex.Chars("n+n+n"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	forest := NewForest(chart)
	first, err := forest.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	second, err := forest.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("got %d and %d trees, want 2", len(first), len(second))
	}

	for i := range first {
		if first[i] == second[i] {
			t.Fatalf("enumerations share tree %d", i)
		}
		if !first[i].Equal(second[i]) {
			t.Errorf("tree %d differs between enumerations: %s vs %s", i, first[i], second[i])
		}
	}
	if first[0].Equal(first[1]) {
		t.Errorf("distinct derivations compare equal: %s", first[0])
	}
	if first[0].Equal(nil) {
		t.Error("tree equals nil")
	}
	var none *Node
	if !none.Equal(nil) {
		t.Error("nil trees should be equal")
	}
}

func TestRecognize_Steps(t *testing.T) {
	g := mustGrammar(t, "S\nS -> a S\nS ->")
	chart, err := Recognize(context.Background(), g, lex.Chars("aaa"), WithLogger(commonlog.GetLogger("earley.test")))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if !chart.Accepted() {
		t.Fatal("chart rejected a derivable input")
	}
	if chart.Steps() < chart.Store().Len() {
		t.Errorf("Steps = %d for %d items", chart.Steps(), chart.Store().Len())
	}

	// The same budget that was used is enough to rebuild the chart.
	again, err := Recognize(context.Background(), g, lex.Chars("aaa"), WithMaxSteps(chart.Steps()))
	if err != nil || !again.Accepted() {
		t.Errorf("rebuild with %d steps: accepted=%t err=%v", chart.Steps(), again.Accepted(), err)
	}
}

func TestParse_NilContext(t *testing.T) {
	g := mustGrammar(t, "S\nS -> S S\nS -> a")
	var ctx context.Context

	// Long enough for several periodic context checks in both phases.
	trees, err := ParseString(ctx, g, "aaaaaaaaaaaa", WithLimit(50))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(trees) != 50 {
		t.Errorf("got %d trees, want 50", len(trees))
	}
}
