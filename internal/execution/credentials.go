package execution

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// StaticCredentialStore serves one set of configured credentials for
// every host. It is the minimal store for single-operator deployments;
// anything multi-tenant should implement engine.CredentialStore against
// a real secret backend.
type StaticCredentialStore struct {
	username string
	password string
	port     int
}

// NewStaticCredentialStore builds a store from configuration.
func NewStaticCredentialStore(cfg *config.CredentialsConfig) (*StaticCredentialStore, error) {
	if cfg == nil || cfg.Username == "" {
		return nil, fmt.Errorf("credentials username is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	return &StaticCredentialStore{
		username: cfg.Username,
		password: cfg.Password.Value(),
		port:     port,
	}, nil
}

// Lookup returns the configured credentials for any host.
func (s *StaticCredentialStore) Lookup(_ context.Context, host string) (*engine.Credentials, error) {
	return &engine.Credentials{
		Host:     host,
		Username: s.username,
		Password: s.password,
		Port:     s.port,
	}, nil
}
