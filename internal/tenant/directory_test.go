package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/domain"
)

type stubMappings struct {
	byDomain map[string]*domain.DomainMapping
	err      error
	lookups  int
}

func (s *stubMappings) Create(context.Context, *domain.DomainMapping) error { return nil }
func (s *stubMappings) ListByTenant(context.Context, string) ([]domain.DomainMapping, error) {
	return nil, nil
}
func (s *stubMappings) Deactivate(context.Context, string) error { return nil }

func (s *stubMappings) GetActiveByDomain(_ context.Context, host string) (*domain.DomainMapping, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.byDomain[host]; ok {
		return m, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestDirectory(mappings *stubMappings) *Directory {
	return NewDirectory(mappings, zap.NewNop(), ".preview.app", []string{"dev.internal"})
}

func TestResolveLocalHostsSkipDatabase(t *testing.T) {
	mappings := &stubMappings{}
	d := newTestDirectory(mappings)

	for _, host := range []string{"localhost", "127.0.0.1", "dev.internal", "branch-42.preview.app"} {
		result, err := d.Resolve(context.Background(), host)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", host, err)
		}
		if result.Resolution != ResolutionLocal {
			t.Fatalf("Resolve(%s) = %v, want local", host, result.Resolution)
		}
		if result.DomainType() != domain.DomainTypeMain {
			t.Fatalf("local host type = %s, want main", result.DomainType())
		}
	}
	if mappings.lookups != 0 {
		t.Fatalf("local hosts hit the database %d times", mappings.lookups)
	}
}

func TestResolveMappedHost(t *testing.T) {
	mapping := &domain.DomainMapping{
		ID:       "m-1",
		Domain:   "center-one.example.com",
		TenantID: "center-1",
		Type:     domain.DomainTypeAdmin,
		Active:   true,
	}
	d := newTestDirectory(&stubMappings{byDomain: map[string]*domain.DomainMapping{mapping.Domain: mapping}})

	result, err := d.Resolve(context.Background(), "center-one.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if result.Resolution != ResolutionMapped {
		t.Fatalf("resolution = %v", result.Resolution)
	}
	if result.Mapping.TenantID != "center-1" {
		t.Fatalf("tenant = %s", result.Mapping.TenantID)
	}
	if result.DomainType() != domain.DomainTypeAdmin {
		t.Fatalf("type = %s", result.DomainType())
	}
}

func TestResolveUnknownHostIsNotFoundNotError(t *testing.T) {
	d := newTestDirectory(&stubMappings{})

	result, err := d.Resolve(context.Background(), "stranger.example.com")
	if err != nil {
		t.Fatalf("no-rows must not surface as an error: %v", err)
	}
	if result.Resolution != ResolutionNotFound {
		t.Fatalf("resolution = %v, want not found", result.Resolution)
	}
}

func TestResolveExactMatchOnly(t *testing.T) {
	mapping := &domain.DomainMapping{ID: "m-1", Domain: "shop.example.com", TenantID: "c", Type: domain.DomainTypeMain, Active: true}
	d := newTestDirectory(&stubMappings{byDomain: map[string]*domain.DomainMapping{mapping.Domain: mapping}})

	for _, host := range []string{"Shop.example.com", "shop.example.com.", "sub.shop.example.com"} {
		result, err := d.Resolve(context.Background(), host)
		if err != nil {
			t.Fatal(err)
		}
		if result.Resolution != ResolutionNotFound {
			t.Fatalf("Resolve(%s) matched, want exact-match miss", host)
		}
	}
}

func TestResolvePropagatesBackendFailure(t *testing.T) {
	d := newTestDirectory(&stubMappings{err: errors.New("connection refused")})

	_, err := d.Resolve(context.Background(), "shop.example.com")
	if err == nil {
		t.Fatal("backend failure must propagate, not degrade to not found")
	}
}
