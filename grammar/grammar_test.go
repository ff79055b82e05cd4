package grammar

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/ebnf"
)

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		start string
		rules []Rule
		want  string
	}{
		{"missing start", "", []Rule{{LHS: "S"}}, "missing start symbol"},
		{"undefined start", "S", []Rule{{LHS: "A"}}, `start symbol "S" has no productions`},
		{"empty lhs", "S", []Rule{{LHS: ""}}, "empty left-hand side"},
		{"unnamed symbol", "S", []Rule{{LHS: "S", RHS: []Symbol{{}}}}, "has no name"},
		{"undefined nonterminal", "S", []Rule{{LHS: "S", RHS: []Symbol{NT("X")}}}, `nonterminal "X" has no productions`},
		{"terminal with productions", "S", []Rule{{LHS: "S", RHS: []Symbol{T("S")}}}, "used as a terminal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.rules)
			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("New() error = %v, want *Error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestNew_Model(t *testing.T) {
	g := MustNew("S", []Rule{
		{LHS: "S", RHS: []Symbol{NT("A"), T("x"), NT("B")}},
		{LHS: "A"},
		{LHS: "A", RHS: []Symbol{T("a"), NT("A")}},
		{LHS: "B", RHS: []Symbol{T("b")}},
		{LHS: "A"},
		{LHS: "U", RHS: []Symbol{T("u")}},
	})

	if got := len(g.Productions()); got != 5 {
		t.Errorf("got %d productions, want 5 after dropping the repeated rule", got)
	}
	for i, p := range g.Productions() {
		if p.ID != i || g.Production(i) != p {
			t.Errorf("production %d has ID %d", i, p.ID)
		}
	}
	if g.Production(-1) != nil || g.Production(5) != nil {
		t.Error("out of range Production should be nil")
	}
	if diff := cmp.Diff([]string{"S", "A", "B", "U"}, g.Nonterminals()); diff != "" {
		t.Errorf("Nonterminals (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "u", "x"}, g.Terminals()); diff != "" {
		t.Errorf("Terminals (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"U"}, g.Unreachable()); diff != "" {
		t.Errorf("Unreachable (-want +got):\n%s", diff)
	}
	if !g.Nullable("A") || g.Nullable("B") || g.Nullable("S") {
		t.Errorf("nullable: A=%t B=%t S=%t", g.Nullable("A"), g.Nullable("B"), g.Nullable("S"))
	}
	if !g.IsNonterminal("B") || g.IsNonterminal("b") {
		t.Error("IsNonterminal mismatch")
	}
	if got := len(g.ProductionsFor("A")); got != 2 {
		t.Errorf("A has %d alternatives, want 2", got)
	}
	if got := g.ProductionsFor("A")[0].String(); got != "A ->" {
		t.Errorf("String() = %q", got)
	}
}

func TestNullable_Chain(t *testing.T) {
	g, err := ParseString("S\nS -> a b C d e\nC -> D\nD -> E\nE ->")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, name := range []string{"C", "D", "E"} {
		if !g.Nullable(name) {
			t.Errorf("%s should be nullable", name)
		}
	}
	if g.Nullable("S") {
		t.Error("S should not be nullable")
	}
}

func TestParse_Text(t *testing.T) {
	g, err := ParseString(`
		# arithmetic
		EXP

		EXP -> EXP + EXP
		EXP -> n
		EXP ->
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if g.Start() != NT("EXP") {
		t.Errorf("Start() = %v", g.Start())
	}
	var got []string
	for _, p := range g.Productions() {
		got = append(got, p.String())
	}
	want := []string{"EXP -> EXP + EXP", "EXP -> n", "EXP ->"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("productions (-want +got):\n%s", diff)
	}
	rhs := g.Productions()[0].RHS
	if rhs[0].Kind != Nonterminal || rhs[1].Kind != Terminal {
		t.Errorf("symbol kinds = %v, %v", rhs[0].Kind, rhs[1].Kind)
	}
}

func TestParse_TextErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		content string
		msg     string
	}{
		{"empty", "\n  \n", 0, "", "missing start symbol"},
		{"start with spaces", "S T\nS -> a", 1, "S T", "invalid start symbol"},
		{"missing arrow", "S\nS -> a\nS a", 3, "S a", "invalid rule"},
		{"arrow without spaces", "S\nS->a", 2, "S->a", "invalid rule"},
		{"two left symbols", "S\n\nS T -> a", 3, "S T -> a", "invalid rule"},
		{"second arrow", "S\nS -> a -> b", 2, "S -> a -> b", "unexpected second arrow"},
		{"undefined start", "\nS\nA -> a", 2, "S", `start symbol "S" has no productions`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.grammar", strings.NewReader(tt.input))
			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("Parse() error = %v, want *Error", err)
			}
			if gerr.File != "test.grammar" {
				t.Errorf("File = %q", gerr.File)
			}
			if gerr.Line != tt.line {
				t.Errorf("Line = %d, want %d", gerr.Line, tt.line)
			}
			if gerr.Content != tt.content {
				t.Errorf("Content = %q, want %q", gerr.Content, tt.content)
			}
			if !strings.Contains(gerr.Msg, tt.msg) {
				t.Errorf("Msg = %q, want it to contain %q", gerr.Msg, tt.msg)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{File: "g.txt", Line: 3, Content: "S a", Msg: "invalid rule"}
	if got, want := err.Error(), `g.txt:3: invalid rule: "S a"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err = &Error{Msg: "missing start symbol"}
	if got := err.Error(); got != "missing start symbol" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFromEBNF(t *testing.T) {
	eg, err := ebnf.Parse("test.ebnf", strings.NewReader(`
		list = "[" [ items ] "]" .
		items = item { "," item } .
		item = Number | list .
		Number = digit { digit } .
		digit = "0" … "9" .
		WhiteSpace = " " .
	`))
	if err != nil {
		t.Fatalf("parse ebnf: %v", err)
	}

	g, err := FromEBNF(eg, "list")
	if err != nil {
		t.Fatalf("FromEBNF: %v", err)
	}

	var got []string
	for _, p := range g.Productions() {
		got = append(got, p.String())
	}
	want := []string{
		"list~opt1 -> items",
		"list~opt1 ->",
		"list -> [ list~opt1 ]",
		"item -> Number",
		"item -> list",
		"items~rep1 -> items~rep1 , item",
		"items~rep1 ->",
		"items -> item items~rep1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("productions (-want +got):\n%s", diff)
	}
	if !g.Nullable("list~opt1") || !g.Nullable("items~rep1") {
		t.Error("option and repetition helpers should be nullable")
	}
	if g.IsNonterminal("Number") {
		t.Error("lexical production should stay a terminal")
	}
}

func TestFromEBNF_Ranges(t *testing.T) {
	eg, err := ebnf.Parse("test.ebnf", strings.NewReader(`
		bit = "0" … "1" .
	`))
	if err != nil {
		t.Fatalf("parse ebnf: %v", err)
	}
	g, err := FromEBNF(eg, "bit")
	if err != nil {
		t.Fatalf("FromEBNF: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "1"}, g.Terminals()); diff != "" {
		t.Errorf("Terminals (-want +got):\n%s", diff)
	}
}

func TestFromEBNF_Errors(t *testing.T) {
	eg, err := ebnf.Parse("test.ebnf", strings.NewReader(`
		expr = term "+" missing .
		term = "x" .
		Token = "t" .
	`))
	if err != nil {
		t.Fatalf("parse ebnf: %v", err)
	}

	if _, err := FromEBNF(eg, "expr"); err == nil {
		t.Error("undefined production should fail verification")
	}
	if _, err := FromEBNF(eg, "nothing"); err == nil {
		t.Error("missing start production should fail")
	}
	if _, err := FromEBNF(eg, "Token"); err == nil {
		t.Error("lexical start production should fail")
	}
}
