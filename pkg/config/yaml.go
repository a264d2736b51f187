package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Limits applied when parsing config files. Config YAML is small; these
// bounds reject runaway or hostile documents before unmarshalling.
const (
	maxYAMLSize  = 1 << 20 // 1MB
	maxYAMLDepth = 20
	maxYAMLNodes = 10000
)

// safeUnmarshal parses YAML after checking size, nesting depth and node
// count limits.
func safeUnmarshal(data []byte, v any) error {
	if len(data) > maxYAMLSize {
		return fmt.Errorf("config exceeds maximum size of %d bytes", maxYAMLSize)
	}

	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	nodes := 0
	if err := checkNode(&root, 0, &nodes); err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func checkNode(node *yaml.Node, depth int, nodes *int) error {
	if depth > maxYAMLDepth {
		return fmt.Errorf("config nesting depth exceeds maximum of %d", maxYAMLDepth)
	}
	*nodes++
	if *nodes > maxYAMLNodes {
		return fmt.Errorf("config node count exceeds maximum of %d", maxYAMLNodes)
	}
	for _, child := range node.Content {
		if err := checkNode(child, depth+1, nodes); err != nil {
			return err
		}
	}
	return nil
}
