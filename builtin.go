package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Builtins returns a registry preloaded with the framework sanitizers and
// validators. Names follow the host platform's conventions so exported
// schemas read naturally.
func Builtins() *Registry {
	r := NewRegistry()
	sanitizers := map[string]SanitizeFunc{
		"trim":     builtinTrim,
		"intval":   builtinIntval,
		"floatval": builtinFloatval,
		"boolval":  builtinBoolval,
		"strval":   builtinStrval,
	}
	validators := map[string]ValidateFunc{
		"is_int":    builtinIsInt,
		"is_float":  builtinIsFloat,
		"is_bool":   builtinIsBool,
		"is_string": builtinIsString,
		"nonempty":  builtinNonempty,
	}
	for name, fn := range sanitizers {
		_ = r.RegisterSanitizer(name, fn)
	}
	for name, fn := range validators {
		_ = r.RegisterValidator(name, fn)
	}
	return r
}

func builtinTrim(value any, _ func(string)) any {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

func builtinIntval(value any, notice func(string)) any {
	switch v := value.(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
		notice(fmt.Sprintf("coerced %q to 0", v.String()))
		return 0
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int(f)
		}
		notice(fmt.Sprintf("coerced %q to 0", v))
		return 0
	case nil:
		return 0
	default:
		notice(fmt.Sprintf("coerced %T to 0", value))
		return 0
	}
}

func builtinFloatval(value any, notice func(string)) any {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		notice(fmt.Sprintf("coerced %q to 0", v.String()))
		return float64(0)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		notice(fmt.Sprintf("coerced %q to 0", v))
		return float64(0)
	case bool:
		if v {
			return float64(1)
		}
		return float64(0)
	case nil:
		return float64(0)
	default:
		notice(fmt.Sprintf("coerced %T to 0", value))
		return float64(0)
	}
}

func builtinBoolval(value any, _ func(string)) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		default:
			return false
		}
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case nil:
		return false
	default:
		return false
	}
}

func builtinStrval(value any, _ func(string)) any {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func builtinIsInt(value any, warn func(string)) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		if v == math.Trunc(v) {
			return true
		}
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return true
		}
	}
	warn(fmt.Sprintf("expected an integer, got %T", value))
	return false
}

func builtinIsFloat(value any, warn func(string)) bool {
	switch value.(type) {
	case float32, float64, json.Number:
		return true
	}
	warn(fmt.Sprintf("expected a number, got %T", value))
	return false
}

func builtinIsBool(value any, warn func(string)) bool {
	if _, ok := value.(bool); ok {
		return true
	}
	warn(fmt.Sprintf("expected a boolean, got %T", value))
	return false
}

func builtinIsString(value any, warn func(string)) bool {
	if _, ok := value.(string); ok {
		return true
	}
	warn(fmt.Sprintf("expected a string, got %T", value))
	return false
}

func builtinNonempty(value any, warn func(string)) bool {
	switch v := value.(type) {
	case nil:
	case string:
		if strings.TrimSpace(v) != "" {
			return true
		}
	case []any:
		if len(v) > 0 {
			return true
		}
	case map[string]any:
		if len(v) > 0 {
			return true
		}
	default:
		return true
	}
	warn("value must not be empty")
	return false
}
