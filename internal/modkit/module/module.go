// Package module defines the contract of an API module and the bootstrap port registry
package module

import (
	phttp "issuebridge/internal/platform/net/http"
)

// Module mounts routes and exposes a port set for cross wiring
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
