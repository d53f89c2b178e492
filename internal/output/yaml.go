package output

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ingpoc/ui-test-generation-mcp/internal/model"
	"gopkg.in/yaml.v3"
)

// WriteYAML serializes v to w as YAML.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// AriaSnapshot renders an accessibility tree as a YAML list:
//
//	- heading "Welcome" [level=1]
//	- button "Sign in" [ref=e1]
//	- list:
//	  - listitem: First
func AriaSnapshot(nodes []model.Node) (string, error) {
	if len(nodes) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, ariaSequence(nodes)); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func ariaSequence(nodes []model.Node) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, n := range nodes {
		seq.Content = append(seq.Content, ariaItem(n))
	}
	return seq
}

func ariaItem(n model.Node) *yaml.Node {
	if n.Role == "text" && len(n.Children) == 0 {
		return mapping("text", scalar(n.Name))
	}
	key := ariaKey(n)
	switch {
	case len(n.Children) > 0:
		return mapping(key, ariaSequence(n.Children))
	case n.Value != "":
		return mapping(key, scalar(n.Value))
	default:
		return scalar(key)
	}
}

// ariaKey renders the role, quoted name and bracketed attributes of a node.
func ariaKey(n model.Node) string {
	var b strings.Builder
	b.WriteString(n.Role)
	if n.Name != "" {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.Name))
	}
	if n.Level > 0 {
		fmt.Fprintf(&b, " [level=%d]", n.Level)
	}
	switch n.Checked {
	case "true":
		b.WriteString(" [checked]")
	case "mixed":
		b.WriteString(" [checked=mixed]")
	}
	if n.Disabled {
		b.WriteString(" [disabled]")
	}
	if n.Expanded != nil {
		fmt.Fprintf(&b, " [expanded=%t]", *n.Expanded)
	}
	if n.Selected {
		b.WriteString(" [selected]")
	}
	if n.Focused {
		b.WriteString(" [active]")
	}
	if n.Ref != "" {
		fmt.Fprintf(&b, " [ref=%s]", n.Ref)
	}
	return b.String()
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func mapping(key string, value *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar(key), value}}
}
