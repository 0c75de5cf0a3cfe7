package settings

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList accepts a list, a comma-delimited string or a single scalar and
// normalizes it to trimmed, non-empty values.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var out StringList
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			out = append(out, SplitList(item.Value)...)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a comma-delimited string", node.Line)
	}
}

// SplitList splits s on commas, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
