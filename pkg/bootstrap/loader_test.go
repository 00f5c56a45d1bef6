package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("bootstrap:loader_test - write %s: %v", p, err)
	}
	return p
}

func TestGetDefaultCatalogConfig(t *testing.T) {
	cfg := GetDefaultCatalogConfig()

	if cfg.Name != "mapperd" {
		t.Errorf("expected name mapperd, got %s", cfg.Name)
	}
	if len(cfg.APIVersions) == 0 {
		t.Fatal("expected api versions, got none")
	}
	if len(cfg.Warmup) == 0 {
		t.Fatal("expected warmup pairs, got none")
	}
	if cfg.Events.Global != "mapper.resolved" {
		t.Errorf("expected global subject mapper.resolved, got %s", cfg.Events.Global)
	}
}

func TestLoadCatalogConfig_YAML(t *testing.T) {
	t.Setenv("MAPPER_BOOTSTRAP_FILE", "")
	p := writeFile(t, "mapper.yaml", `
name: billing-mapper
version: 2.1.0
apiVersions: ["1.0.0", "1.1.0"]
aliases:
  invoice: billing.Invoice
warmup:
  - source: invoice
    destination: billing.InvoiceView
eventSubjects:
  global: billing.resolved
`)

	cfg, err := LoadCatalogConfig(p)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - unexpected error: %v", err)
	}
	if cfg.Name != "billing-mapper" || cfg.Version != "2.1.0" {
		t.Errorf("bootstrap:loader_test - got name=%s version=%s", cfg.Name, cfg.Version)
	}
	if len(cfg.APIVersions) != 2 {
		t.Errorf("bootstrap:loader_test - APIVersions = %v", cfg.APIVersions)
	}
	if cfg.Aliases["invoice"] != "billing.Invoice" {
		t.Error("bootstrap:loader_test - expected invoice alias")
	}
	if cfg.Aliases["account"] != "catalog.Account" {
		t.Error("bootstrap:loader_test - expected default aliases to remain")
	}
	if cfg.Events.Global != "billing.resolved" {
		t.Errorf("bootstrap:loader_test - Events.Global = %s", cfg.Events.Global)
	}
	if cfg.Events.Pattern != "mapper.resolved.{source}.{destination}" {
		t.Errorf("bootstrap:loader_test - Events.Pattern = %s", cfg.Events.Pattern)
	}

	pairs := CreateResolvedCatalog(cfg).WarmupPairs()
	if len(pairs) != 1 || pairs[0].Source != "billing.Invoice" || pairs[0].Destination != "billing.InvoiceView" {
		t.Errorf("bootstrap:loader_test - WarmupPairs = %+v", pairs)
	}
}

func TestLoadCatalogConfig_JSONFromEnv(t *testing.T) {
	p := writeFile(t, "mapper.json", `{"name":"env-mapper","warmup":[]}`)
	t.Setenv("MAPPER_BOOTSTRAP_FILE", p)

	cfg, err := LoadCatalogConfig()
	if err != nil {
		t.Fatalf("bootstrap:loader_test - unexpected error: %v", err)
	}
	if cfg.Name != "env-mapper" {
		t.Errorf("bootstrap:loader_test - Name = %s", cfg.Name)
	}
	if len(cfg.Warmup) != 0 {
		t.Errorf("bootstrap:loader_test - expected explicit empty warmup, got %+v", cfg.Warmup)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("bootstrap:loader_test - expected default version, got %s", cfg.Version)
	}
}

func TestLoadCatalogConfig_SkipsInvalidFiles(t *testing.T) {
	t.Setenv("MAPPER_BOOTSTRAP_FILE", "")
	bad := writeFile(t, "bad.yml", "name: [unterminated")
	good := writeFile(t, "good.json", `{"name":"good"}`)

	cfg, err := LoadCatalogConfig(filepath.Join(t.TempDir(), "missing.json"), bad, good)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - unexpected error: %v", err)
	}
	if cfg.Name != "good" {
		t.Errorf("bootstrap:loader_test - Name = %s, want good", cfg.Name)
	}
}

func TestParseCatalogConfig_IncompleteWarmup(t *testing.T) {
	_, err := ParseCatalogConfig("x.json", []byte(`{"warmup":[{"source":"a"}]}`))
	if err == nil {
		t.Fatal("bootstrap:loader_test - expected error for warmup without destination")
	}
}

func TestResolveAlias(t *testing.T) {
	resolved := CreateResolvedCatalog(GetDefaultCatalogConfig())

	if got := resolved.ResolveAlias("account"); got != "catalog.Account" {
		t.Errorf("expected catalog.Account, got %s", got)
	}
	if got := resolved.ResolveAlias("pkg.Type"); got != "pkg.Type" {
		t.Errorf("expected passthrough for unknown alias, got %s", got)
	}
}

func TestCreateResolvedCatalog_Copies(t *testing.T) {
	cfg := GetDefaultCatalogConfig()
	resolved := CreateResolvedCatalog(cfg)

	cfg.Aliases["account"] = "changed.Type"
	cfg.Warmup[0].Source = "changed"

	if resolved.ResolveAlias("account") != "catalog.Account" {
		t.Error("expected resolved catalog to be isolated from config aliases")
	}
	if resolved.WarmupPairs()[0].Source != "catalog.Account" {
		t.Error("expected resolved catalog to be isolated from config warmup")
	}
	if resolved.Name() != "mapperd" || resolved.Version() != "1.0.0" || resolved.GlobalSubject() != "mapper.resolved" {
		t.Error("expected identity fields to be copied")
	}
	if resolved.EventPattern() != "mapper.resolved.{source}.{destination}" {
		t.Errorf("bootstrap:loader_test - EventPattern = %q", resolved.EventPattern())
	}
	if len(resolved.APIVersions()) != 1 {
		t.Errorf("expected one api version, got %v", resolved.APIVersions())
	}
}

func TestMergeCatalogConfigs(t *testing.T) {
	base := GetDefaultCatalogConfig()
	override := &CatalogConfig{
		APIVersions: []string{"2.0.0"},
		Aliases:     map[string]string{"order": "shop.Order"},
	}

	merged := MergeCatalogConfigs(base, override)

	if merged.Aliases["account"] != "catalog.Account" {
		t.Error("expected base alias to remain")
	}
	if merged.Aliases["order"] != "shop.Order" {
		t.Error("expected override alias to be added")
	}
	if _, ok := base.Aliases["order"]; ok {
		t.Error("expected base to be left unmodified")
	}
	if len(merged.APIVersions) != 1 || merged.APIVersions[0] != "2.0.0" {
		t.Errorf("expected api versions to be replaced, got %v", merged.APIVersions)
	}
	if len(merged.Warmup) != len(base.Warmup) {
		t.Error("expected nil override warmup to keep base warmup")
	}
}
