package platform

import (
	"errors"

	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
)

// ErrUnsupported is returned when no browser backend has been linked in.
var ErrUnsupported = errors.New("no browser backend registered; import internal/platform/chromium")

// NewSessionFactoryFunc is set by backend packages via init().
// See internal/platform/chromium/init.go for the Chromium registration.
var NewSessionFactoryFunc func(cfg config.Browser) (SessionFactory, error)

// NewSessionFactory returns a SessionFactory for the linked backend.
func NewSessionFactory(cfg config.Browser) (SessionFactory, error) {
	if NewSessionFactoryFunc == nil {
		return nil, ErrUnsupported
	}
	return NewSessionFactoryFunc(cfg)
}
