package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

// Strategy is one concrete scraping provider implementation.
type Strategy interface {
	Name() string
	FetchPosts(ctx context.Context, profileURLs []string, maxPerProfile int) ([]domain.ContentItem, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(s Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[s.Name()] = s
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if s, ok := r.strategies[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("scrape provider %s is not registered", name)
}

// StrategySource adapts a registered provider to the post-source port,
// normalizing configured profile handles into full profile URLs.
type StrategySource struct {
	registry *Registry
	provider string
	logger   *slog.Logger
}

var _ ports.PostSource = (*StrategySource)(nil)

// NewStrategySource wires the registry with the configured provider name.
func NewStrategySource(reg *Registry, provider string, logger *slog.Logger) *StrategySource {
	return &StrategySource{registry: reg, provider: provider, logger: logger}
}

// FetchPosts resolves the configured provider and delegates the scrape.
func (s *StrategySource) FetchPosts(ctx context.Context, profiles []string, maxPerProfile int) ([]domain.ContentItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scrape registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.provider)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if u := NormalizeProfileURL(p); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}

	if s.logger != nil {
		s.logger.Debug("fetching posts", "provider", s.provider, "profiles", len(urls), "maxPerProfile", maxPerProfile)
	}

	items, err := strategy.FetchPosts(ctx, urls, maxPerProfile)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.provider, err)
	}

	if s.logger != nil {
		s.logger.Debug("fetch done", "provider", s.provider, "items", len(items))
	}
	return items, nil
}

// NormalizeProfileURL turns a configured handle into a full profile URL.
// Full URLs pass through unchanged; a leading @ is stripped.
func NormalizeProfileURL(profile string) string {
	p := strings.TrimSpace(profile)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	p = strings.TrimPrefix(p, "@")
	return "https://www.instagram.com/" + p + "/"
}
