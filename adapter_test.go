package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-settings/pkg/backend"
)

func TestNewAdapterRequiresBackend(t *testing.T) {
	if _, err := NewAdapter(SiteScope(), nil); !errors.Is(err, ErrBackendRequired) {
		t.Fatalf("expected ErrBackendRequired, got %v", err)
	}
}

func TestNewAdapterValidatesScope(t *testing.T) {
	be := backend.NewMemoryBackend()
	bad := []Scope{
		{Kind: "planet"},
		SubSiteScope(0),
		UserMetaScope(0),
		{Kind: ScopeUser, UserID: 1, UserStorage: "secret"},
		ContentItemScope(-1),
	}
	for _, scope := range bad {
		if _, err := NewAdapter(scope, be); !errors.Is(err, ErrUnsupportedScope) {
			t.Fatalf("scope %v: expected ErrUnsupportedScope, got %v", scope, err)
		}
	}
}

func TestAdapterAutoloadSupport(t *testing.T) {
	be := backend.NewMemoryBackend()
	cases := []struct {
		name  string
		scope Scope
		opts  []AdapterOption
		want  bool
	}{
		{"site", SiteScope(), nil, true},
		{"network", NetworkScope(), nil, false},
		{"current subsite", SubSiteScope(2), []AdapterOption{AdapterCurrentSubSite(2)}, true},
		{"other subsite", SubSiteScope(2), []AdapterOption{AdapterCurrentSubSite(5)}, false},
		{"user meta", UserMetaScope(1), nil, false},
		{"user option", UserOptionScope(1, true), nil, false},
		{"content item", ContentItemScope(1), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdapter(tc.scope, be, tc.opts...)
			if err != nil {
				t.Fatalf("new adapter: %v", err)
			}
			if a.SupportsAutoload() != tc.want {
				t.Fatalf("expected autoload support %v", tc.want)
			}
		})
	}
}

func TestAdapterScopesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	be := backend.NewMemoryBackend()
	scopes := []Scope{
		SiteScope(),
		NetworkScope(),
		SubSiteScope(1),
		SubSiteScope(2),
		UserMetaScope(1),
		UserOptionScope(1, true),
		ContentItemScope(1),
	}
	for i, scope := range scopes {
		a, err := NewAdapter(scope, be)
		if err != nil {
			t.Fatalf("new adapter %v: %v", scope, err)
		}
		if ok, err := a.Update(ctx, "bundle", i, AutoloadNone); !ok || err != nil {
			t.Fatalf("update %v: ok=%v err=%v", scope, ok, err)
		}
	}
	if be.Len() != len(scopes) {
		t.Fatalf("expected %d distinct rows, got %d", len(scopes), be.Len())
	}
	for i, scope := range scopes {
		a, _ := NewAdapter(scope, be)
		value, ok, err := a.Read(ctx, "bundle", nil)
		if err != nil || !ok || value != i {
			t.Fatalf("read %v: value=%v ok=%v err=%v", scope, value, ok, err)
		}
	}
}

func TestAdapterReadReturnsDefault(t *testing.T) {
	be := backend.NewMemoryBackend()
	a, err := NewAdapter(SiteScope(), be)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	value, ok, err := a.Read(context.Background(), "missing", "fallback")
	if err != nil || ok || value != "fallback" {
		t.Fatalf("expected default fallback, got value=%v ok=%v err=%v", value, ok, err)
	}
}

func TestUserOptionKeysQualifiedBySubSite(t *testing.T) {
	ctx := context.Background()
	be := backend.NewMemoryBackend()

	siteOne, err := NewAdapter(UserOptionScope(7, false), be, AdapterCurrentSubSite(1))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	siteTwo, err := NewAdapter(UserOptionScope(7, false), be, AdapterCurrentSubSite(2))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	if ok, err := siteOne.Update(ctx, "theme", "dark", AutoloadNone); !ok || err != nil {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := siteTwo.Read(ctx, "theme", nil); ok {
		t.Fatalf("sub-sites must not share non-global user options")
	}
	if value, ok, _ := siteOne.Read(ctx, "theme", nil); !ok || value != "dark" {
		t.Fatalf("expected qualified row readable, got %v ok=%v", value, ok)
	}

	// Global user options ignore the current sub-site entirely.
	globalOne, _ := NewAdapter(UserOptionScope(7, true), be, AdapterCurrentSubSite(1))
	globalTwo, _ := NewAdapter(UserOptionScope(7, true), be, AdapterCurrentSubSite(2))
	if ok, err := globalOne.Update(ctx, "locale", "es", AutoloadNone); !ok || err != nil {
		t.Fatalf("global update: ok=%v err=%v", ok, err)
	}
	if value, ok, _ := globalTwo.Read(ctx, "locale", nil); !ok || value != "es" {
		t.Fatalf("global options must be shared, got %v ok=%v", value, ok)
	}
}

func TestUserMetaAndOptionStoresAreDistinct(t *testing.T) {
	ctx := context.Background()
	be := backend.NewMemoryBackend()
	meta, _ := NewAdapter(UserMetaScope(7), be)
	option, _ := NewAdapter(UserOptionScope(7, true), be)

	if ok, err := meta.Update(ctx, "bio", "hello", AutoloadNone); !ok || err != nil {
		t.Fatalf("meta update: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := option.Read(ctx, "bio", nil); ok {
		t.Fatalf("user meta and user option stores must not overlap")
	}
}

func TestScopeString(t *testing.T) {
	cases := []struct {
		scope Scope
		want  string
	}{
		{SiteScope(), "site"},
		{NetworkScope(), "network"},
		{SubSiteScope(3), "subsite:3"},
		{UserMetaScope(7), "user:7/meta"},
		{UserOptionScope(7, true), "user:7/option:global"},
		{ContentItemScope(9), "item:9"},
	}
	for _, tc := range cases {
		if got := tc.scope.String(); got != tc.want {
			t.Fatalf("Scope.String() = %q, want %q", got, tc.want)
		}
	}
}
