package audit

import (
	"fmt"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

// New creates the auditor described by cfg. Disabled auditing yields a
// NoopAuditor.
func New(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "", "memory":
		return NewInMemoryAuditor(), nil
	case "file":
		a, err := NewFileAuditor(cfg.Path)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "noop":
		return NewNoopAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type %q", cfg.Type)
	}
}
