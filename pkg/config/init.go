package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// sectionComments annotate the top-level keys of a generated config file.
var sectionComments = map[string]string{
	"logging":     "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)",
	"store":       "Blob store: type selects one of the sections below (memory, badger, filesystem, s3)",
	"persistence": "Blob encoding for writes: codec (json, cbor), compression (none, zstd, lz4)",
	"workspace":   "Workspace behavior",
	"metrics":     "Prometheus endpoint, served on /metrics when enabled",
}

const configHeader = `# DittoWS Configuration File
#
# Every value can be overridden with an environment variable named after
# its key, e.g. DITTOWS_LOGGING_LEVEL=DEBUG or DITTOWS_STORE_TYPE=memory.
`

// InitConfig writes a default configuration file to the default location.
//
// Parameters:
//   - force: Overwrite an existing file
//
// Returns:
//   - string: Path of the written file
//   - error: If the file exists (and force is false) or cannot be written
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigAt(path, force)
}

// InitConfigAt writes a default configuration file to path.
func InitConfigAt(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := RenderConfig(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RenderConfig renders cfg as a commented YAML document. Durations are
// written in their string form ("2s") so the file stays readable.
func RenderConfig(cfg *Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}
	if ws := mappingValue(&doc, "workspace"); ws != nil {
		setDuration(ws, "run_delay", cfg.Workspace.RunDelay)
		setDuration(ws, "restart_delay", cfg.Workspace.RestartDelay)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(configHeader+"\n"), out...), nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setDuration(m *yaml.Node, key string, d time.Duration) {
	if v := mappingValue(m, key); v != nil {
		v.Kind = yaml.ScalarNode
		v.Tag = "!!str"
		v.Value = d.String()
	}
}
