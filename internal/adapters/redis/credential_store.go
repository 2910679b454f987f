// Package redis provides a Redis-backed credential store with local-storage
// semantics, shared by every frontend instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/util"
)

const (
	fieldUser        = "user"
	fieldAccessToken = "access_token"
	defaultPrefix    = "holygrail:session:"
)

// ErrNoNamespace is returned when Save cannot be attributed to any client.
var ErrNoNamespace = errors.New("redis credential store: no namespace in context")

var _ ports.CredentialStore = (*CredentialStore)(nil)

type namespaceKey struct{}

// WithNamespace returns a child context whose credential operations target ns
// (typically a per-browser device identifier).
func WithNamespace(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, namespaceKey{}, ns)
}

// NamespaceFromContext returns the namespace attached with WithNamespace.
func NamespaceFromContext(ctx context.Context) (string, bool) {
	ns, ok := ctx.Value(namespaceKey{}).(string)
	return ns, ok && ns != ""
}

// Options configures a CredentialStore.
type Options struct {
	// Prefix is prepended to every key. Defaults to "holygrail:session:".
	Prefix string
	// Namespace is used when the context carries none. Empty means writes
	// without a context namespace fail with ErrNoNamespace.
	Namespace string
	Clock     ports.Clock
}

// CredentialStore keeps both session halves in one Redis hash whose TTL
// matches the session expiry.
type CredentialStore struct {
	client    redis.UniversalClient
	prefix    string
	namespace string
	clock     ports.Clock
}

// NewCredentialStore creates a Redis-backed credential store.
func NewCredentialStore(client redis.UniversalClient, opts Options) *CredentialStore {
	prefix := opts.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &CredentialStore{
		client:    client,
		prefix:    prefix,
		namespace: strings.TrimSpace(opts.Namespace),
		clock:     clock,
	}
}

func (s *CredentialStore) key(ctx context.Context) (string, bool) {
	if ns, ok := NamespaceFromContext(ctx); ok {
		return s.prefix + ns, true
	}
	if s.namespace != "" {
		return s.prefix + s.namespace, true
	}
	return "", false
}

// Load reads both fields. A missing hash or namespace reads as empty credentials.
func (s *CredentialStore) Load(ctx context.Context) (domainauth.Credentials, error) {
	key, ok := s.key(ctx)
	if !ok {
		return domainauth.Credentials{}, nil
	}

	vals, err := s.client.HMGet(ctx, key, fieldUser, fieldAccessToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Credentials{}, nil
		}
		return domainauth.Credentials{}, fmt.Errorf("redis hmget: %w", err)
	}

	var creds domainauth.Credentials
	if len(vals) == 2 {
		creds.User, _ = vals[0].(string)
		creds.AccessToken, _ = vals[1].(string)
	}
	return creds, nil
}

// Save replaces both fields and sets the hash expiry in a single MULTI/EXEC.
func (s *CredentialStore) Save(ctx context.Context, creds domainauth.Credentials, expiresAt time.Time) error {
	key, ok := s.key(ctx)
	if !ok {
		return ErrNoNamespace
	}
	if !creds.Complete() {
		return errors.New("redis credential store: both user and token are required")
	}
	if !expiresAt.After(s.clock.Now()) {
		// Session is already expired, don't save it
		return errors.New("redis credential store: session is expired")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldUser, creds.User, fieldAccessToken, creds.AccessToken)
		pipe.ExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save credentials: %w", err)
	}
	return nil
}

// Clear deletes the hash. Deleting a missing key is not an error, and neither
// is clearing without a namespace.
func (s *CredentialStore) Clear(ctx context.Context) error {
	key, ok := s.key(ctx)
	if !ok {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
