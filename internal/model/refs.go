package model

import "strconv"

// GenerateRefs walks the tree in document order and assigns e1, e2, ... to
// every interactive node. Refs restart from e1 on each call, so they are only
// meaningful against the snapshot they were generated for.
func GenerateRefs(nodes []Node) {
	next := 1
	generateRefsRecursive(nodes, &next)
}

func generateRefsRecursive(nodes []Node, next *int) {
	for i := range nodes {
		n := &nodes[i]
		if IsInteractive(n.Role) {
			n.Ref = "e" + strconv.Itoa(*next)
			*next++
		}
		generateRefsRecursive(n.Children, next)
	}
}
