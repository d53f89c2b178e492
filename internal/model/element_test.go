package model

import "testing"

func TestBuildTree_LinksChildren(t *testing.T) {
	raw := []RawNode{
		{ID: "1", Role: "RootWebArea", Name: "Home", ChildIDs: []string{"2", "3"}},
		{ID: "2", ParentID: "1", Role: "heading", Name: "Welcome", Properties: map[string]string{"level": "1"}},
		{ID: "3", ParentID: "1", Role: "button", Name: "Sign in", Properties: map[string]string{"disabled": "true"}},
	}
	tree := BuildTree(raw)
	if len(tree) != 1 {
		t.Fatalf("expected 1 root, got %d", len(tree))
	}
	root := tree[0]
	if root.Role != "document" || root.Name != "Home" {
		t.Errorf("root = %s %q", root.Role, root.Name)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	if h := root.Children[0]; h.Role != "heading" || h.Level != 1 {
		t.Errorf("heading = %+v", h)
	}
	if b := root.Children[1]; !b.Disabled {
		t.Errorf("button should be disabled: %+v", b)
	}
}

func TestBuildTree_IgnoredPromotesChildren(t *testing.T) {
	raw := []RawNode{
		{ID: "1", Role: "RootWebArea", ChildIDs: []string{"2"}},
		{ID: "2", ParentID: "1", Role: "none", Ignored: true, ChildIDs: []string{"3", "4"}},
		{ID: "3", ParentID: "2", Role: "link", Name: "Docs"},
		{ID: "4", ParentID: "2", Role: "InlineTextBox", Name: "Docs"},
	}
	tree := BuildTree(raw)
	kids := tree[0].Children
	if len(kids) != 1 || kids[0].Role != "link" {
		t.Fatalf("expected promoted link, got %+v", kids)
	}
}

func TestBuildTree_CycleSafe(t *testing.T) {
	raw := []RawNode{
		{ID: "1", Role: "RootWebArea", ChildIDs: []string{"2"}},
		{ID: "2", ParentID: "1", Role: "generic", ChildIDs: []string{"1"}},
	}
	if got := CountNodes(BuildTree(raw)); got != 2 {
		t.Errorf("expected 2 nodes, got %d", got)
	}
}

func TestBuildTree_Expanded(t *testing.T) {
	raw := []RawNode{{ID: "1", Role: "combobox", Properties: map[string]string{"expanded": "false"}}}
	tree := BuildTree(raw)
	if tree[0].Expanded == nil || *tree[0].Expanded {
		t.Errorf("expected expanded=false, got %v", tree[0].Expanded)
	}
}

func TestCountNodes(t *testing.T) {
	nodes := []Node{
		{Role: "list", Children: []Node{{Role: "listitem"}, {Role: "listitem"}}},
		{Role: "button"},
	}
	if got := CountNodes(nodes); got != 4 {
		t.Errorf("CountNodes = %d, want 4", got)
	}
}
