// Package auth resolves a caller's credential to a verified moderator identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"srcbook/internal/srcom"
	"srcbook/internal/store"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries a speedrun.com API key.
const APIKeyHeader = "X-API-Key"

// ErrUnauthenticated means the credential is missing or was rejected.
var ErrUnauthenticated = errors.New("missing or invalid credentials")

// Resolver turns the credential on a request into a moderator identity.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) (string, error)
}

// ProfileFetcher looks up the owner of a speedrun.com API key.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, apiKey string) (string, error)
}

// APIKeyResolver verifies X-API-Key against speedrun.com's /profile endpoint.
// Resolved names are cached by key hash for ttl; raw keys are never kept.
type APIKeyResolver struct {
	profiles ProfileFetcher
	cache    *lru.Cache // key hash -> cachedIdentity
	ttl      time.Duration
	now      func() time.Time
}

type cachedIdentity struct {
	name      string
	expiresAt time.Time
}

// NewAPIKeyResolver creates a resolver with an LRU of cacheSize entries, each
// trusted for ttl before speedrun.com is asked again.
func NewAPIKeyResolver(profiles ProfileFetcher, cacheSize int, ttl time.Duration) (*APIKeyResolver, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity cache: %w", err)
	}
	return &APIKeyResolver{profiles: profiles, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (a *APIKeyResolver) Resolve(ctx context.Context, r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if key == "" {
		return "", fmt.Errorf("%w: %s header is required", ErrUnauthenticated, APIKeyHeader)
	}

	hash := HashKey(key)
	if v, ok := a.cache.Get(hash); ok {
		cached := v.(cachedIdentity)
		if a.now().Before(cached.expiresAt) {
			return cached.name, nil
		}
		a.cache.Remove(hash)
	}

	name, err := a.profiles.FetchProfile(ctx, key)
	if err != nil {
		var statusErr *srcom.StatusError
		if errors.As(err, &statusErr) && statusErr.Unauthorized() {
			return "", fmt.Errorf("%w: api key rejected", ErrUnauthenticated)
		}
		return "", err
	}

	a.cache.Add(hash, cachedIdentity{name: name, expiresAt: a.now().Add(a.ttl)})
	return name, nil
}

// PasswordResolver checks HTTP Basic credentials against locally stored users.
type PasswordResolver struct {
	users store.UserStore
}

func NewPasswordResolver(users store.UserStore) *PasswordResolver {
	return &PasswordResolver{users: users}
}

func (p *PasswordResolver) Resolve(ctx context.Context, r *http.Request) (string, error) {
	username, password, ok := r.BasicAuth()
	if !ok || username == "" {
		return "", fmt.Errorf("%w: basic auth is required", ErrUnauthenticated)
	}

	user, err := p.users.GetUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: wrong password for %s", ErrUnauthenticated, username)
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("%w: wrong password for %s", ErrUnauthenticated, username)
	}
	return user.Username, nil
}

// NewUser hashes password and returns a user ready to be stored.
func NewUser(username, password string) (*store.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &store.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}, nil
}
