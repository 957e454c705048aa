// Package auth gates protected operations behind bearer token verification
// against an OIDC identity provider.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/terrasense/regolith/pkg/lifecycle"
)

// Principal identifies the authenticated caller.
type Principal struct {
	ID    string
	Email string
}

// Verifier validates a raw bearer token and resolves its principal.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// System defines the public contract for authentication.
type System interface {
	// Start registers identity provider discovery as a startup hook.
	Start(lc *lifecycle.Coordinator) error

	// Authenticate validates the Authorization header value and resolves
	// the caller. A missing or malformed header is rejected without
	// consulting the verifier.
	Authenticate(ctx context.Context, header string) (*Principal, error)
}

type system struct {
	cfg    *Config
	logger *slog.Logger

	mu       sync.RWMutex
	verifier Verifier
}

// New creates an authentication system backed by OIDC discovery. The
// verifier is not available until Start runs its startup hook.
func New(cfg *Config, logger *slog.Logger) System {
	return &system{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

// NewWithVerifier creates an authentication system around an existing
// verifier, bypassing provider discovery.
func NewWithVerifier(verifier Verifier, logger *slog.Logger) System {
	return &system{
		logger:   logger.With("system", "auth"),
		verifier: verifier,
	}
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting auth", "issuer", s.cfg.Issuer)

	lc.OnStartup(func() {
		verifier, err := discover(lc.Context(), s.cfg)
		if err != nil {
			s.logger.Error("identity provider discovery failed", "error", err)
			return
		}

		s.mu.Lock()
		s.verifier = verifier
		s.mu.Unlock()

		s.logger.Info("identity provider discovered")
	})

	return nil
}

func (s *system) Authenticate(ctx context.Context, header string) (*Principal, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrUnauthenticated
	}

	s.mu.RLock()
	verifier := s.verifier
	s.mu.RUnlock()

	if verifier == nil {
		return nil, ErrVerifierUnavailable
	}

	principal, err := verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Warn("token rejected", "error", err)
		return nil, ErrUnauthenticated
	}

	return principal, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
