package utils

import (
	"encoding/json"
	"fmt"
	"sort"
)

// GetNestedString extracts a string from a nested map
func GetNestedString(data map[string]interface{}, keys ...string) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("invalid keys")
	}

	current := data
	for _, key := range keys[:len(keys)-1] {
		nested, ok := current[key].(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("key %s is not a map", key)
		}
		current = nested
	}

	last := keys[len(keys)-1]
	if str, ok := current[last].(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("key %s is not a string", last)
}

// GetFirstMapValue returns the value stored under the lexically smallest key,
// so repeated calls on the same document pick the same entry
func GetFirstMapValue(m map[string]interface{}) (interface{}, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("map is empty")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return m[keys[0]], nil
}

// ParseJSON parses a JSON string into a map
func ParseJSON(jsonStr string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return result, nil
}
