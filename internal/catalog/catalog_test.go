package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/morezero/type-mapper/pkg/mapper"
	"github.com/morezero/type-mapper/pkg/registry"
)

const catalogTestPrefix = "catalog:catalog_test"

func newCatalogRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	if err := Register(r); err != nil {
		t.Fatalf("%s - Register: %v", catalogTestPrefix, err)
	}
	return r
}

func TestRegister_Capabilities(t *testing.T) {
	r := newCatalogRegistry(t)

	want := map[string]string{
		"TypeMapper[catalog.Account, catalog.AccountView]": "singleton",
		"TypeMapper[catalog.Account, catalog.ProfileView]": "scoped",
		"TypeMapper[catalog.Account, string]":              "singleton",
		"TypeMapper[catalog.Source, catalog.Destination]":  "singleton",
	}
	caps := r.Capabilities()
	if len(caps) != len(want) {
		t.Fatalf("%s - expected %d capabilities, got %d", catalogTestPrefix, len(want), len(caps))
	}
	for _, c := range caps {
		lifetime, ok := want[c.Capability]
		if !ok {
			t.Errorf("%s - unexpected capability %s", catalogTestPrefix, c.Capability)
			continue
		}
		if c.Lifetime != lifetime {
			t.Errorf("%s - %s lifetime = %s, want %s", catalogTestPrefix, c.Capability, c.Lifetime, lifetime)
		}
	}

	for _, name := range []string{"catalog.Account", "catalog.AccountView", "catalog.ProfileView", "catalog.Source", "catalog.Destination"} {
		if _, ok := r.TypeByName(name); !ok {
			t.Errorf("%s - TypeByName(%q) not found", catalogTestPrefix, name)
		}
	}
}

func TestSourceToDestination_CopiesName(t *testing.T) {
	m := newCatalogRegistry(t).Mapper()

	got, err := mapper.Map[Destination](m, Source{Name: "original"})
	if err != nil {
		t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
	}
	if got.Name != "original" {
		t.Errorf("%s - Name = %q, want original", catalogTestPrefix, got.Name)
	}
}

func TestAccountView(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    AccountView
		wantErr bool
	}{
		{
			name:    "active with name",
			account: Account{ID: 1, Email: "Ada@Example.com", FirstName: "Ada", LastName: "Lovelace", Active: true},
			want:    AccountView{ID: 1, DisplayName: "Ada Lovelace", Email: "ada@example.com", Status: "active"},
		},
		{
			name:    "inactive without name falls back to email",
			account: Account{ID: 2, Email: "grace@example.com"},
			want:    AccountView{ID: 2, DisplayName: "grace@example.com", Email: "grace@example.com", Status: "inactive"},
		},
		{
			name:    "missing email",
			account: Account{ID: 3, FirstName: "Nobody"},
			wantErr: true,
		},
	}

	m := newCatalogRegistry(t).Mapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapper.Map[AccountView](m, tt.account)
			if tt.wantErr {
				if !errors.Is(err, mapper.ErrMappingFailed) {
					t.Fatalf("%s - expected MAPPING_FAILED, got %v", catalogTestPrefix, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
			}
			if got != tt.want {
				t.Errorf("%s - got %+v, want %+v", catalogTestPrefix, got, tt.want)
			}
		})
	}
}

func TestAccountSummary(t *testing.T) {
	m := newCatalogRegistry(t).Mapper()

	got, err := mapper.Map[string](m, Account{Email: "ada@example.com", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
	}
	if got != "Ada <ada@example.com>" {
		t.Errorf("%s - got %q", catalogTestPrefix, got)
	}
}

func TestProfileView_SharedClockWithinScope(t *testing.T) {
	r := newCatalogRegistry(t)
	account := Account{FirstName: "ada", LastName: "lovelace", Created: time.Now().Add(-72 * time.Hour)}

	scoped := r.NewScope().Mapper()
	first, err := mapper.Map[ProfileView](scoped, account)
	if err != nil {
		t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
	}
	second, err := mapper.Map[ProfileView](scoped, account)
	if err != nil {
		t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
	}
	if !first.RenderedAt.Equal(second.RenderedAt) {
		t.Errorf("%s - RenderedAt differs within one scope: %v vs %v", catalogTestPrefix, first.RenderedAt, second.RenderedAt)
	}
	if first.Initials != "AL" {
		t.Errorf("%s - Initials = %q, want AL", catalogTestPrefix, first.Initials)
	}
	if first.MemberDays < 2 || first.MemberDays > 3 {
		t.Errorf("%s - MemberDays = %d, want about 3", catalogTestPrefix, first.MemberDays)
	}
}

func TestProfileMapper_FixedClock(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	pm := newProfileMapper(func() time.Time { return now })

	got, err := pm.Map(Account{Email: "x@example.com", Created: now.Add(-10 * 24 * time.Hour)})
	if err != nil {
		t.Fatalf("%s - Map: %v", catalogTestPrefix, err)
	}
	if got.MemberDays != 10 {
		t.Errorf("%s - MemberDays = %d, want 10", catalogTestPrefix, got.MemberDays)
	}
	if got.DisplayName != "x@example.com" || got.Initials != "" {
		t.Errorf("%s - got %+v", catalogTestPrefix, got)
	}
	if !got.RenderedAt.Equal(now) {
		t.Errorf("%s - RenderedAt = %v, want %v", catalogTestPrefix, got.RenderedAt, now)
	}
}
