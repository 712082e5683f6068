// Package endpoint resolves the backend base URL from competing
// configuration sources and derives the per-operation endpoints from it.
package endpoint

import (
	"context"
	"strings"

	"solace/internal/localstore"
)

// Well-known backends.
const (
	LocalBackend  = "http://localhost:7860"
	HostedBackend = "https://api.solace-companion.net/api"
)

// Source records which configuration source won the resolution.
type Source string

const (
	SourceInjected Source = "injected"
	SourceExplicit Source = "explicit"
	SourceSaved    Source = "saved"
	SourceLoopback Source = "loopback"
	SourceFallback Source = "fallback"
)

// Config is the resolved backend base URL. It is derived once per process
// start (or once per explicit override) and immutable afterwards.
type Config struct {
	Base   string
	Source Source
}

// Sources are the inputs to resolution, in priority order: a value injected
// by a trusted host environment, an explicit user-supplied override for this
// run, a previously saved override, and the running host for the loopback
// heuristic.
type Sources struct {
	Injected string
	Explicit string
	Saved    string
	Host     string
}

// Resolve picks the backend base URL. It is pure and total: first non-empty
// source wins, a loopback host falls back to the local development backend,
// and anything else resolves to the hosted backend. A saved override that is
// empty after trimming is treated as absent, never as a literal target.
func Resolve(src Sources) Config {
	if injected := strings.TrimSpace(src.Injected); injected != "" {
		return Config{Base: normalize(injected), Source: SourceInjected}
	}
	if explicit := strings.TrimSpace(src.Explicit); explicit != "" {
		return Config{Base: normalize(explicit), Source: SourceExplicit}
	}
	if saved := strings.TrimSpace(src.Saved); saved != "" {
		return Config{Base: normalize(saved), Source: SourceSaved}
	}
	if isLoopbackHost(src.Host) {
		return Config{Base: LocalBackend, Source: SourceLoopback}
	}
	return Config{Base: HostedBackend, Source: SourceFallback}
}

// Endpoints are the per-operation URLs derived from a resolved base. They
// are always recomputed from the base, never stored, so an override can
// never leave a stale derived URL behind.
type Endpoints struct {
	Base       string
	Login      string
	Register   string
	Consent    string
	Survey     string
	Chat       string
	Statistics string
	History    string
}

// EndpointsFor derives the full endpoint set from a base URL.
func EndpointsFor(base string) Endpoints {
	base = normalize(base)
	return Endpoints{
		Base:       base,
		Login:      base + "/login",
		Register:   base + "/register",
		Consent:    base + "/consent",
		Survey:     base + "/survey",
		Chat:       base + "/chat",
		Statistics: base + "/user/statistics",
		History:    base + "/user/emotion-history",
	}
}

func normalize(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}

// Resolver binds resolution to the durable cache so the saved override
// survives restarts.
type Resolver struct {
	store    localstore.Store
	injected string
	explicit string
	host     string
}

// NewResolver creates a Resolver over the given cache and fixed sources.
func NewResolver(store localstore.Store, injected, explicit, host string) *Resolver {
	return &Resolver{store: store, injected: injected, explicit: explicit, host: host}
}

// Resolve reads the saved override from the cache and runs resolution.
// Resolution never fails; an unreadable cache behaves as an absent override.
func (r *Resolver) Resolve(ctx context.Context) Config {
	saved, err := r.store.Get(ctx, localstore.EndpointOverrideKey())
	if err != nil {
		saved = ""
	}
	return Resolve(Sources{
		Injected: r.injected,
		Explicit: r.explicit,
		Saved:    saved,
		Host:     r.host,
	})
}

// Override persists url as the saved override and returns the freshly
// re-derived endpoint set. An empty url removes the override so resolution
// falls back to the heuristic chain.
func (r *Resolver) Override(ctx context.Context, url string) (Endpoints, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		if err := r.store.Delete(ctx, localstore.EndpointOverrideKey()); err != nil {
			return Endpoints{}, err
		}
	} else {
		if err := r.store.Put(ctx, localstore.EndpointOverrideKey(), url); err != nil {
			return Endpoints{}, err
		}
	}
	// Explicit per-run overrides deliberately keep winning over the saved one.
	cfg := r.Resolve(ctx)
	return EndpointsFor(cfg.Base), nil
}
