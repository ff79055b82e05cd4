// Package format renders parse trees for people and for other tools.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/earley/earley"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(trees []*earley.Node) error
}

// Names lists the encoders accepted by New.
var Names = []string{"text", "line", "json", "dot"}

// New returns the encoder called name. Color only affects the text encoder.
func New(name string, w io.Writer, color bool) (Encoder, error) {
	switch name {
	case "text":
		return NewTextEncoder(w, color), nil
	case "line":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "dot":
		return NewDOTEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
