package format

import (
	"io"
	"strings"

	"github.com/dhamidi/earley/earley"
)

// LineEncoder writes one bracketed tree per line, which makes the output
// easy to sort, diff and grep.
type LineEncoder struct {
	w     io.Writer
	trees []*earley.Node
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(trees []*earley.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, tree := range e.trees {
		sb.WriteString(tree.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}
