package chromium

import (
	"github.com/go-rod/rod/lib/proto"
	"github.com/ingpoc/ui-test-generation-mcp/internal/model"
)

// rawNodes converts the browser's flat accessibility tree.
func rawNodes(nodes []*proto.AccessibilityAXNode) []model.RawNode {
	raw := make([]model.RawNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		r := model.RawNode{
			ID:          string(n.NodeID),
			ParentID:    string(n.ParentID),
			Role:        axString(n.Role),
			Name:        axString(n.Name),
			Value:       axString(n.Value),
			Description: axString(n.Description),
			Ignored:     n.Ignored,
		}
		for _, c := range n.ChildIDs {
			r.ChildIDs = append(r.ChildIDs, string(c))
		}
		if len(n.Properties) > 0 {
			r.Properties = make(map[string]string, len(n.Properties))
			for _, prop := range n.Properties {
				if prop != nil {
					r.Properties[string(prop.Name)] = axString(prop.Value)
				}
			}
		}
		raw = append(raw, r)
	}
	return raw
}

func axString(v *proto.AccessibilityAXValue) string {
	if v == nil || v.Value.Nil() {
		return ""
	}
	if s, ok := v.Value.Val().(string); ok {
		return s
	}
	return v.Value.JSON("", "")
}
