package sysinfo

import (
	"fmt"

	"github.com/hostboard/hostboard/internal/config"
)

// New returns the Provider selected by the configuration.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "local":
		return NewLocalProvider(), nil
	case "nodeexporter":
		return NewNodeExporterProvider(cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("sysinfo: unsupported provider type %q", cfg.Type)
	}
}
