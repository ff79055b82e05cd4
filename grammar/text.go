package grammar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Arrow separates the left-hand side from the right-hand side in the
// textual grammar format.
const Arrow = "->"

type textLine struct {
	num    int
	text   string
	fields []string
}

// Parse reads a grammar in the line-oriented text format:
//
//	EXP
//	EXP -> EXP + EXP
//	EXP -> n
//
// The first non-blank line names the start symbol. Every following line is
// a production "LHS -> RHS...", possibly with an empty right-hand side.
// Symbols that appear on some left-hand side are nonterminals, all others
// are terminals. Lines starting with '#' are comments.
func Parse(name string, r io.Reader) (*Grammar, error) {
	var lines []textLine
	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, textLine{num: num, text: text, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}

	if len(lines) == 0 {
		return nil, &Error{File: name, Msg: "missing start symbol"}
	}
	first := lines[0]
	if len(first.fields) != 1 || first.fields[0] == Arrow {
		return nil, &Error{File: name, Line: first.num, Content: first.text, Msg: "invalid start symbol"}
	}
	start := first.fields[0]

	defined := make(map[string]bool)
	for _, l := range lines[1:] {
		if len(l.fields) < 2 || l.fields[1] != Arrow || l.fields[0] == Arrow {
			return nil, &Error{File: name, Line: l.num, Content: l.text, Msg: "invalid rule, want \"LHS -> RHS...\""}
		}
		defined[l.fields[0]] = true
	}

	rules := make([]Rule, 0, len(lines)-1)
	for _, l := range lines[1:] {
		rhs := make([]Symbol, 0, len(l.fields)-2)
		for _, word := range l.fields[2:] {
			if word == Arrow {
				return nil, &Error{File: name, Line: l.num, Content: l.text, Msg: "unexpected second arrow"}
			}
			if defined[word] {
				rhs = append(rhs, NT(word))
			} else {
				rhs = append(rhs, T(word))
			}
		}
		rules = append(rules, Rule{LHS: l.fields[0], RHS: rhs})
	}

	g, err := New(start, rules)
	if err != nil {
		var gerr *Error
		if errors.As(err, &gerr) {
			gerr.File = name
			if !defined[start] {
				gerr.Line = first.num
				gerr.Content = first.text
			}
		}
		return nil, err
	}
	return g, nil
}

// ParseString parses a grammar held in memory.
func ParseString(text string) (*Grammar, error) {
	return Parse("", strings.NewReader(text))
}

// Load parses the grammar file at filename.
func Load(filename string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return Parse(filename, f)
}
