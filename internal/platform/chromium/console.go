package chromium

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// consoleText renders console API arguments the way DevTools prints them
// on one line.
func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		switch {
		case a.Type == proto.RuntimeRemoteObjectTypeUndefined:
			parts = append(parts, "undefined")
		case a.Subtype == proto.RuntimeRemoteObjectSubtypeNull:
			parts = append(parts, "null")
		case a.Type == proto.RuntimeRemoteObjectTypeString:
			parts = append(parts, a.Value.Str())
		case !a.Value.Nil():
			parts = append(parts, a.Value.JSON("", ""))
		case a.Description != "":
			parts = append(parts, a.Description)
		default:
			parts = append(parts, string(a.Type))
		}
	}
	return strings.Join(parts, " ")
}
