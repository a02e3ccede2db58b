package reifydb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StoreConfig configures one tier of a MultiStoreConfig. Driver selects the
// kv.Backend implementation; Path is meaningful only for the sqlite driver.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite"
	Path   string `yaml:"path,omitempty"`
}

// RetentionConfig is loaded and saved with the rest of the configuration;
// Open does not read it, and no collector reclaims committed versions or
// their CDC events.
type RetentionConfig struct {
	MinVersions uint64 `yaml:"min_versions"`
}

// MergeConfig holds a schedule for compaction between the hot and warm
// tiers of a tiered mvcc.Store (spec.md §4.C "tiered hot/warm/cold
// placement"). Open does not read it; no background compaction runs.
type MergeConfig struct {
	Schedule string `yaml:"schedule"` // robfig/cron spec, e.g. "0 */5 * * * *"
}

// MultiStoreConfig is the collaborator-facing configuration surface named
// in spec.md §6: Hot is required, Warm/Cold/Merge/Retention are optional
// refinements of the same tiered storage model. Cold is accepted for
// forward compatibility with the original three-tier design but unused —
// this engine only wires Hot and an optional Warm tier (spec.md's scope
// never requires more than two live backends at once).
type MultiStoreConfig struct {
	Hot       StoreConfig      `yaml:"hot"`
	Warm      *StoreConfig     `yaml:"warm,omitempty"`
	Cold      *StoreConfig     `yaml:"cold,omitempty"`
	Merge     *MergeConfig     `yaml:"merge,omitempty"`
	Retention *RetentionConfig `yaml:"retention,omitempty"`

	// GCSchedule drives the dictionary-encoding garbage collector
	// (internal/cdc.GCScheduler), independent of tier compaction.
	GCSchedule string `yaml:"gc_schedule,omitempty"`
}

// DefaultMemoryConfig returns the configuration used by the embedded
// in-memory builder: a single hot memory tier, no warm/cold tiers, no
// scheduled compaction.
func DefaultMemoryConfig() MultiStoreConfig {
	return MultiStoreConfig{Hot: StoreConfig{Driver: "memory"}}
}

// LoadConfig reads and parses a MultiStoreConfig from a YAML file at path.
func LoadConfig(path string) (MultiStoreConfig, error) {
	var cfg MultiStoreConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reifydb: load config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("reifydb: parse config: %w", err)
	}
	if cfg.Hot.Driver == "" {
		return cfg, fmt.Errorf("reifydb: config: hot.driver is required")
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating or truncating the file.
func SaveConfig(path string, cfg MultiStoreConfig) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("reifydb: marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("reifydb: save config: %w", err)
	}
	return nil
}
