package chromium

import (
	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

func init() {
	platform.NewSessionFactoryFunc = func(cfg config.Browser) (platform.SessionFactory, error) {
		return NewFactory(cfg), nil
	}
}
