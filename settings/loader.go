package settings

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the JSON configuration at path. If the file does not exist,
// a default configuration is written there and returned, matching the
// teacher's "first run materializes the file" behavior for client/server
// configs.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c := NewDefaultConfiguration()
		if writeErr := c.writeTo(path); writeErr != nil {
			return nil, fmt.Errorf("settings: failed to materialize default config at %s: %w", path, writeErr)
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: failed to read %s: %w", path, err)
	}

	c := &Configuration{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("settings: failed to parse %s: %w", path, err)
	}
	c.EnsureDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) writeTo(path string) error {
	marshalled, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, marshalled, 0o644)
}
