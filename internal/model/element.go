package model

import "strconv"

// Node represents an element in a page's accessibility tree.
type Node struct {
	Role        string `yaml:"role"`                  // Normalized ARIA role
	Name        string `yaml:"name,omitempty"`        // Accessible name
	Value       string `yaml:"value,omitempty"`       // Current value (inputs, sliders)
	Description string `yaml:"description,omitempty"` // Accessible description
	Level       int    `yaml:"level,omitempty"`       // Heading / tree level
	Checked     string `yaml:"checked,omitempty"`     // "true", "false" or "mixed"
	Disabled    bool   `yaml:"disabled,omitempty"`
	Expanded    *bool  `yaml:"expanded,omitempty"` // nil = not expandable
	Focused     bool   `yaml:"focused,omitempty"`
	Selected    bool   `yaml:"selected,omitempty"`
	Ref         string `yaml:"ref,omitempty"` // e1, e2, ... assigned by GenerateRefs
	Children    []Node `yaml:"children,omitempty"`
}

// RawNode is one entry of the flat accessibility tree reported by the browser.
type RawNode struct {
	ID          string
	ParentID    string
	ChildIDs    []string
	Role        string // Browser role name, e.g. RootWebArea, StaticText
	Name        string
	Value       string
	Description string
	Ignored     bool
	Properties  map[string]string
}

// BuildTree links flat nodes into a tree. Ignored nodes and roles in
// skippedRoles are dropped and their children are promoted.
func BuildTree(raw []RawNode) []Node {
	byID := make(map[string]*RawNode, len(raw))
	for i := range raw {
		byID[raw[i].ID] = &raw[i]
	}

	visited := make(map[string]bool, len(raw))
	var build func(id string) []Node
	build = func(id string) []Node {
		r, ok := byID[id]
		if !ok || visited[id] {
			return nil
		}
		visited[id] = true

		var children []Node
		for _, c := range r.ChildIDs {
			children = append(children, build(c)...)
		}
		if r.Ignored || skippedRoles[r.Role] {
			return children
		}
		n := fromRaw(*r)
		n.Children = children
		return []Node{n}
	}

	var roots []Node
	for i := range raw {
		r := &raw[i]
		if _, hasParent := byID[r.ParentID]; r.ParentID != "" && hasParent {
			continue
		}
		roots = append(roots, build(r.ID)...)
	}
	return roots
}

func fromRaw(r RawNode) Node {
	n := Node{
		Role:        MapRole(r.Role),
		Name:        r.Name,
		Value:       r.Value,
		Description: r.Description,
	}
	p := r.Properties
	if lvl, err := strconv.Atoi(p["level"]); err == nil {
		n.Level = lvl
	}
	if c := p["checked"]; c != "" {
		n.Checked = c
	}
	if p["disabled"] == "true" {
		n.Disabled = true
	}
	if e, ok := p["expanded"]; ok {
		v := e == "true"
		n.Expanded = &v
	}
	n.Focused = p["focused"] == "true"
	n.Selected = p["selected"] == "true"
	return n
}

// CountNodes returns the number of nodes in the tree.
func CountNodes(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + CountNodes(node.Children)
	}
	return n
}
