package hooks

import (
	"fmt"
	"strconv"

	"github.com/sipa-dev/sipa/pkg/component"
)

// Event is passed to hook functions.
type Event struct {
	Type Type

	// Page and Layout name the page and layout involved. For destroy hooks
	// they name the outgoing ones.
	Page   string
	Layout string

	// Instance is the page or layout instance the hook is about.
	Instance *component.Instance

	// Params are the navigation parameters.
	Params map[string]any
}

// String returns the parameter key formatted as a string.
func (e Event) String(key string) string {
	if v, ok := e.Params[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// Int returns the parameter key as an int, or 0.
func (e Event) Int(key string) int {
	if v, ok := e.Params[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		case string:
			i, _ := strconv.Atoi(val)
			return i
		}
	}
	return 0
}

// Bool returns the parameter key as a bool.
func (e Event) Bool(key string) bool {
	if v, ok := e.Params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
		b, _ := strconv.ParseBool(fmt.Sprintf("%v", v))
		return b
	}
	return false
}

// Strings returns the parameter key as a string slice.
func (e Event) Strings(key string) []string {
	switch list := e.Params[key].(type) {
	case []string:
		return list
	case []any:
		strs := make([]string, len(list))
		for i, item := range list {
			strs[i] = fmt.Sprintf("%v", item)
		}
		return strs
	}
	return nil
}

// Raw returns the parameter key unconverted.
func (e Event) Raw(key string) any {
	return e.Params[key]
}
