package app

import (
	"parley/internal/domain"
	identitysvc "parley/internal/services/identity"
	"parley/internal/store"
)

// Wire bundles the stores and services the CLI commands use.
type Wire struct {
	Identity  domain.IdentityStore
	IDs       domain.IdentityService
	RelayAddr string
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	identityStore := store.NewIdentityFileStore(cfg.Home)
	identitySvc := identitysvc.New(identityStore)

	return &Wire{
		Identity:  identityStore,
		IDs:       identitySvc,
		RelayAddr: cfg.RelayAddr,
	}, nil
}
