package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteJSON serializes v to w as JSON.
// If pretty is true, uses two-space indentation; otherwise single-line.
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// JSON returns v as JSON text without the trailing newline.
func JSON(v interface{}, pretty bool) (string, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, v, pretty); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
