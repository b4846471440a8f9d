package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/termdash/internal/errors"
)

const fileHeader = "# termdash configuration. Durations use Go syntax: 500ms, 2s, 15m.\n" +
	"# Any key can be overridden with TERMDASH_<SECTION>_<KEY>, e.g. TERMDASH_WEATHER_LOCATION.\n"

// Write marshals cfg to path, creating parent directories as needed.
// An existing file is only replaced when overwrite is true.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite it, or 'termdash config set' to change single keys.")
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't write config file",
			"Check permissions on "+path)
	}
	return nil
}

// Marshal renders cfg as commented YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config",
			"This is unexpected - please report it.")
	}
	encoder.Close()

	return buf.Bytes(), nil
}

// SetValue sets a dotted key such as "weather.location" in the config file.
// It preserves the existing YAML structure and comments. Missing sections
// and keys are created. For list values, value is split on commas.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child := findMapValue(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalar(part), child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section", part)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	target := findMapValue(node, leaf)
	if target == nil {
		target = &yaml.Node{}
		node.Content = append(node.Content, scalar(leaf), target)
	}

	if target.Kind == yaml.SequenceNode || isListKey(key) {
		items := make([]*yaml.Node, 0)
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				items = append(items, scalar(v))
			}
		}
		*target = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items, HeadComment: target.HeadComment, LineComment: target.LineComment}
	} else {
		*target = yaml.Node{Kind: yaml.ScalarNode, Value: value, HeadComment: target.HeadComment, LineComment: target.LineComment}
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isListKey(key string) bool {
	return key == "crypto.assets"
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
