package platform

import (
	"context"
	"testing"

	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
)

type stubFactory struct{}

func (stubFactory) CreateSession(context.Context, ClientInfo) (Session, error) { return nil, nil }

func TestNewSessionFactory_Unregistered(t *testing.T) {
	orig := NewSessionFactoryFunc
	NewSessionFactoryFunc = nil
	defer func() { NewSessionFactoryFunc = orig }()

	_, err := NewSessionFactory(config.Browser{})
	if err != ErrUnsupported {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestNewSessionFactory_Registered(t *testing.T) {
	orig := NewSessionFactoryFunc
	var got config.Browser
	NewSessionFactoryFunc = func(cfg config.Browser) (SessionFactory, error) {
		got = cfg
		return stubFactory{}, nil
	}
	defer func() { NewSessionFactoryFunc = orig }()

	f, err := NewSessionFactory(config.Browser{Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("expected factory")
	}
	if !got.Headless {
		t.Error("browser config was not passed through")
	}
}
