package tools

import (
	"fmt"
	"strings"
)

// quoteFunction turns user code into a function expression page.evaluate
// accepts: parenthesized expressions pass through, functions and arrows are
// parenthesized, anything else becomes an arrow body.
func quoteFunction(code string) string {
	c := strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")"):
		return code
	case strings.HasPrefix(c, "function") || strings.Contains(c, "=>"):
		return "(" + code + ")"
	default:
		return fmt.Sprintf("(() => { %s })", code)
	}
}

// jsString renders s as a single-quoted JavaScript literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// jsProp is one property of a rendered object literal.
type jsProp struct {
	key   string
	value any
}

// jsObject renders props as a JavaScript object literal, skipping nil values.
func jsObject(props ...jsProp) string {
	var parts []string
	for _, p := range props {
		switch v := p.value.(type) {
		case nil:
			continue
		case string:
			parts = append(parts, p.key+": "+jsString(v))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", p.key, v))
		}
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
