package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/earley/earley"
)

type JSONEncoder struct {
	w     io.Writer
	trees []*earley.Node
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(trees []*earley.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data := make([]*jsonNode, len(e.trees))
	for i, tree := range e.trees {
		data[i] = nodeToJSON(tree)
	}
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(text, '\n'), nil
}

type jsonNode struct {
	Symbol     string      `json:"symbol"`
	Production string      `json:"production,omitempty"`
	Token      *jsonToken  `json:"token,omitempty"`
	Start      int         `json:"start"`
	End        int         `json:"end"`
	Children   []*jsonNode `json:"children,omitempty"`
}

type jsonToken struct {
	Kind    string `json:"kind"`
	Literal string `json:"literal"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func nodeToJSON(n *earley.Node) *jsonNode {
	jn := &jsonNode{
		Symbol: n.Symbol.Name,
		Start:  n.Start,
		End:    n.End,
	}

	if n.Token != nil {
		jn.Token = &jsonToken{
			Kind:    n.Token.Kind,
			Literal: n.Token.Literal,
			Line:    n.Token.Position.Line,
			Column:  n.Token.Position.Column,
		}
	}
	if n.Production != nil {
		jn.Production = n.Production.String()
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = nodeToJSON(child)
		}
	}

	return jn
}
