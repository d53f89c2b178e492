package model

import "strings"

// isEmptyGroup returns true if the node is an anonymous generic container,
// i.e. it carries no information beyond its children.
func isEmptyGroup(n Node) bool {
	return n.Role == "generic" && n.Name == "" && n.Value == "" && n.Description == ""
}

// PruneEmptyGroups removes anonymous generic nodes from a tree and promotes
// their children. Text nodes that only repeat their parent's name are
// dropped too, which keeps links and buttons on one line.
func PruneEmptyGroups(nodes []Node) []Node {
	return pruneUnder(nodes, "")
}

func pruneUnder(nodes []Node, parentName string) []Node {
	var result []Node
	for _, n := range nodes {
		if n.Role == "text" && (strings.TrimSpace(n.Name) == "" || n.Name == parentName) && len(n.Children) == 0 {
			continue
		}
		if isEmptyGroup(n) {
			result = append(result, pruneUnder(n.Children, parentName)...)
			continue
		}
		pruned := n
		pruned.Children = pruneUnder(n.Children, n.Name)
		result = append(result, pruned)
	}
	return result
}
