package common

import (
	"strconv"
	"strings"
)

// Metadata keys recognised on EquipmentConfig.Metadata
const (
	MetadataCLIType       = "cli_type"
	MetadataCLIPortPrefix = "cli_port_"
)

// GetMetadataString retrieves a string value with optional fallback keys.
// Keys are checked in order - first match wins.
func GetMetadataString(metadata map[string]string, keys ...string) (string, bool) {
	if metadata == nil {
		return "", false
	}
	for _, key := range keys {
		if value, ok := metadata[key]; ok {
			return value, true
		}
	}
	return "", false
}

// GetMetadataInt retrieves an integer value with optional fallback keys.
// Values that do not parse are skipped.
func GetMetadataInt(metadata map[string]string, keys ...string) (int, bool) {
	if metadata == nil {
		return 0, false
	}
	for _, key := range keys {
		if valueStr, ok := metadata[key]; ok {
			if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
				return value, true
			}
		}
	}
	return 0, false
}

// GetMetadataList splits a comma separated value, dropping blanks
func GetMetadataList(metadata map[string]string, keys ...string) ([]string, bool) {
	value, ok := GetMetadataString(metadata, keys...)
	if !ok {
		return nil, false
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list, len(list) > 0
}

// SessionTypes returns the cli_type override or defaults
func SessionTypes(metadata map[string]string, defaults []string) []string {
	if types, ok := GetMetadataList(metadata, MetadataCLIType); ok {
		return types
	}
	return defaults
}

// SessionPorts merges cli_port_<type> overrides into a copy of defaults.
// Session type keys are upper case.
func SessionPorts(metadata map[string]string, defaults map[string]int) map[string]int {
	ports := make(map[string]int, len(defaults))
	for k, v := range defaults {
		ports[strings.ToUpper(k)] = v
	}
	for key := range metadata {
		if !strings.HasPrefix(key, MetadataCLIPortPrefix) {
			continue
		}
		if port, ok := GetMetadataInt(metadata, key); ok {
			ports[strings.ToUpper(strings.TrimPrefix(key, MetadataCLIPortPrefix))] = port
		}
	}
	return ports
}
