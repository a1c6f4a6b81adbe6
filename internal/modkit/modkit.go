// Package modkit provides module wiring and the shared dependencies handed to modules
package modkit

import "issuebridge/internal/modkit/module"

// Module is the surface API modules implement; see module.Module
type Module = module.Module

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
