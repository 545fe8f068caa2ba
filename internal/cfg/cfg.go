// Package cfg loads and re-serializes the node's single configuration
// file, ./cfg.json (spec.md §6). Grounded on original_source/src/cfg.rs's
// "create with defaults if missing, always re-write pretty-printed"
// semantics, reimplemented with encoding/json instead of serde.
package cfg

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultName is the config's default node name when cfg.json is absent
// or omits the key.
const DefaultName = "cng3_default"

const path = "./cfg.json"

// Cfg is the process-wide, read-only-after-boot configuration (spec.md §6:
// "one recognized key: name").
type Cfg struct {
	Name string `json:"name"`
}

// Load reads path, defaulting and creating it if missing, and always
// re-writes it pretty-printed — matching the teacher's "config is
// normalized at boot" convention.
func Load() (Cfg, error) {
	c := Cfg{Name: DefaultName}

	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &c); err != nil {
			return Cfg{}, fmt.Errorf("cfg: parsing %s: %w", path, err)
		}
		if c.Name == "" {
			c.Name = DefaultName
		}
	} else if !os.IsNotExist(err) {
		return Cfg{}, fmt.Errorf("cfg: reading %s: %w", path, err)
	}

	if err := save(c); err != nil {
		return Cfg{}, err
	}
	return c, nil
}

func save(c Cfg) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("cfg: marshaling: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("cfg: writing %s: %w", path, err)
	}
	return nil
}
