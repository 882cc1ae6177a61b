package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// optionsFlag collects repeated --opt key=value flags into run options.
// "true" and "false" become booleans, numbers become float64, anything else
// stays a string.
type optionsFlag map[string]any

func (o optionsFlag) String() string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, o[k])
	}
	return strings.Join(parts, ",")
}

func (o optionsFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("option %q must be key=value", v)
	}
	o[key] = parseOptionValue(value)
	return nil
}

func parseOptionValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
