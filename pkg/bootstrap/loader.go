package bootstrap

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const logPrefix = "bootstrap:loader"

// defaultPaths are tried after explicit paths and MAPPER_BOOTSTRAP_FILE.
var defaultPaths = []string{"config/mapper.yaml", "config/mapper.json", "mapper.yaml", "mapper.json"}

// LoadCatalogConfig loads the catalog from file paths or environment.
// It tries paths in order: first any paths passed in, then MAPPER_BOOTSTRAP_FILE,
// then defaults. Unreadable or unparsable files are skipped.
func LoadCatalogConfig(paths ...string) (*CatalogConfig, error) {
	all := make([]string, 0, len(paths)+len(defaultPaths)+1)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("MAPPER_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, defaultPaths...)

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		cfg, err := ParseCatalogConfig(p, data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse catalog file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded catalog config from %s", logPrefix, p))
		return MergeCatalogConfigs(GetDefaultCatalogConfig(), cfg), nil
	}

	slog.Info(fmt.Sprintf("%s - Using default catalog config", logPrefix))
	return GetDefaultCatalogConfig(), nil
}

// ParseCatalogConfig decodes data according to the extension of path:
// .yaml and .yml are YAML, anything else JSON.
func ParseCatalogConfig(path string, data []byte) (*CatalogConfig, error) {
	var cfg CatalogConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%s - yaml: %w", logPrefix, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%s - json: %w", logPrefix, err)
		}
	}
	for i, p := range cfg.Warmup {
		if p.Source == "" || p.Destination == "" {
			return nil, fmt.Errorf("%s - warmup[%d]: source and destination are required", logPrefix, i)
		}
	}
	return &cfg, nil
}

// GetDefaultCatalogConfig returns the embedded fallback catalog.
func GetDefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		Name:        "mapperd",
		Version:     "1.0.0",
		Description: "Default type mapper catalog",
		APIVersions: []string{"1.0.0"},
		Aliases: map[string]string{
			"account":      "catalog.Account",
			"account-view": "catalog.AccountView",
			"profile-view": "catalog.ProfileView",
		},
		Warmup: []WarmupPair{
			{Source: "account", Destination: "account-view"},
		},
		Events: EventSubjects{
			Global:  "mapper.resolved",
			Pattern: "mapper.resolved.{source}.{destination}",
		},
	}
}

// CreateResolvedCatalog builds a ResolvedCatalog for fast lookups.
func CreateResolvedCatalog(cfg *CatalogConfig) *ResolvedCatalog {
	return &ResolvedCatalog{
		name:        cfg.Name,
		version:     cfg.Version,
		apiVersions: append([]string(nil), cfg.APIVersions...),
		aliases:     maps.Clone(cfg.Aliases),
		warmup:      append([]WarmupPair(nil), cfg.Warmup...),
		events:      cfg.Events,
	}
}

// MergeCatalogConfigs overlays override onto base without modifying either.
// Scalars and lists replace when set; aliases merge.
func MergeCatalogConfigs(base, override *CatalogConfig) *CatalogConfig {
	merged := *base
	merged.Aliases = maps.Clone(base.Aliases)
	if merged.Aliases == nil {
		merged.Aliases = make(map[string]string)
	}
	maps.Copy(merged.Aliases, override.Aliases)

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.Description != "" {
		merged.Description = override.Description
	}
	if len(override.APIVersions) > 0 {
		merged.APIVersions = override.APIVersions
	}
	if override.Warmup != nil {
		merged.Warmup = override.Warmup
	}
	if override.Events.Global != "" {
		merged.Events.Global = override.Events.Global
	}
	if override.Events.Pattern != "" {
		merged.Events.Pattern = override.Events.Pattern
	}
	return &merged
}
