package identity

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Resolver maps raw metadata names to chat handles: manual overrides first,
// then generated candidates probed against the verification oracle in order.
// Without an oracle the first candidate is accepted unverified.
type Resolver struct {
	overrides map[string]string
	fragments []string
	oracle    ports.HandleOracle
	logger    *slog.Logger
}

// NewResolver wires the configured surname-fragment override table and an
// optional oracle; oracle may be nil for best-effort resolution.
func NewResolver(overrides map[string]string, oracle ports.HandleOracle, logger *slog.Logger) *Resolver {
	normalized := make(map[string]string, len(overrides))
	for fragment, handle := range overrides {
		if key := Normalize(fragment); key != "" && handle != "" {
			normalized[key] = handle
		}
	}

	// Deterministic probe order: longer (more specific) fragments win.
	fragments := make([]string, 0, len(normalized))
	for fragment := range normalized {
		fragments = append(fragments, fragment)
	}
	sort.Slice(fragments, func(i, j int) bool {
		if len(fragments[i]) != len(fragments[j]) {
			return len(fragments[i]) > len(fragments[j])
		}
		return fragments[i] < fragments[j]
	})

	return &Resolver{
		overrides: normalized,
		fragments: fragments,
		oracle:    oracle,
		logger:    logger,
	}
}

// ResolveSupervisor resolves a supervisor name and fails loudly: when every
// candidate is rejected it returns *domain.UnresolvedIdentityError, which the
// caller must treat as fatal for that submission's supervisor step.
func (r *Resolver) ResolveSupervisor(ctx context.Context, raw string) (domain.ResolvedIdentity, error) {
	handle, tried, found := r.resolve(ctx, raw)
	if !found {
		return domain.ResolvedIdentity{}, &domain.UnresolvedIdentityError{RawName: raw, Tried: tried}
	}
	return domain.ResolvedIdentity{RawName: raw, Handle: handle}, nil
}

// ResolveAuthor resolves an author name in no-hard-fail mode: an unresolved
// author only degrades to an unsent permission request, so the miss is
// reported as ok=false instead of an error.
func (r *Resolver) ResolveAuthor(ctx context.Context, raw string) (domain.ResolvedIdentity, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "N/A" {
		return domain.ResolvedIdentity{}, false
	}

	handle, tried, found := r.resolve(ctx, raw)
	if !found {
		r.warn("no chat handle found for author", "author", raw, "tried", strings.Join(tried, ", "))
		return domain.ResolvedIdentity{}, false
	}
	return domain.ResolvedIdentity{RawName: raw, Handle: handle}, true
}

func (r *Resolver) resolve(ctx context.Context, raw string) (handle string, tried []string, found bool) {
	if override, ok := r.override(raw); ok {
		r.debug("manual override matched", "name", raw, "handle", override)
		return override, nil, true
	}

	parsed := Parse(raw)
	candidates := parsed.Candidates()
	r.debug("generated handle candidates",
		"name", raw,
		"convention", parsed.Convention.String(),
		"candidates", strings.Join(candidates, ", "))

	if len(candidates) == 0 {
		return "", nil, false
	}

	if r.oracle == nil {
		return candidates[0], candidates[:1], true
	}

	for _, candidate := range candidates {
		exists, err := r.oracle.HandleExists(ctx, candidate)
		if err != nil {
			r.warn("handle verification failed", "candidate", candidate, "error", err)
			continue
		}
		if exists {
			r.debug("verified handle", "name", raw, "handle", candidate)
			return candidate, candidates, true
		}
	}

	return "", candidates, false
}

// override matches the configured fragments against the whole normalized
// name, so a fragment hits regardless of which side of the comma carries the
// surname; a hit short-circuits generation and verification entirely.
func (r *Resolver) override(raw string) (string, bool) {
	key := Normalize(raw)
	if key == "" {
		return "", false
	}

	for _, fragment := range r.fragments {
		if strings.Contains(key, fragment) {
			return r.overrides[fragment], true
		}
	}
	return "", false
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
