package bot

import (
	"fmt"
	"strings"
)

// ParseSaveArgs splits "/save" arguments into a name and an optional
// description. Format: <name> [| description]
func ParseSaveArgs(args string) (name, description string, err error) {
	name, description, _ = strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("usage: /save <name> [| description]")
	}
	return name, strings.TrimSpace(description), nil
}

// ParseIDArg extracts a saved filter ID from a command argument string.
func ParseIDArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("filter ID is required")
	}
	return fields[0], nil
}
