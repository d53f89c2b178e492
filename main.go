package main

import (
	"github.com/ingpoc/ui-test-generation-mcp/cmd"
	_ "github.com/ingpoc/ui-test-generation-mcp/internal/platform/chromium"
)

func main() {
	cmd.Execute()
}
