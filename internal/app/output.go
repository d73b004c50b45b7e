package app

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// write renders v to the output writer in the configured format.
func (a *App) write(v any) error {
	switch a.config.Output {
	case "json":
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output as json: %w", err)
		}
		return nil
	default:
		enc := yaml.NewEncoder(a.outW)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output as yaml: %w", err)
		}
		return enc.Close()
	}
}
