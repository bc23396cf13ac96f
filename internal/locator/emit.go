package locator

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
)

// Emit renders v as block-style YAML with two-space indentation, the layout FindLine expects. It is
// used when a document arrives without its source text.
func Emit(v document.Value) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v.Node()); err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("closing encoder: %w", err)
	}
	return buf.String(), nil
}
