package common

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

// keyRefPattern matches {NAME} references in config strings
var keyRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// EnvMap returns the process environment as a map
func EnvMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// ReplaceKeyReferences replaces every {NAME} in input with kvMap[NAME].
// Unknown references are left as they are and logged.
func ReplaceKeyReferences(input string, kvMap map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	return keyRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		keyName := match[1 : len(match)-1]
		if value, exists := kvMap[keyName]; exists {
			return value
		}
		logger.Warn().
			Str("reference", match).
			Msg("Unresolved key reference in configuration")
		return match
	})
}

// ReplaceInStruct replaces {NAME} references in the string and []string fields of the struct
// v points to, recursing into nested structs. Values are never logged; they are often secrets.
func ReplaceInStruct(v interface{}, kvMap map[string]string, logger arbor.ILogger) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("ReplaceInStruct requires a pointer, got %T", v)
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("ReplaceInStruct requires a struct pointer, got pointer to %v", val.Kind())
	}
	replaceInStructValue(val, kvMap, logger)
	return nil
}

func replaceInStructValue(val reflect.Value, kvMap map[string]string, logger arbor.ILogger) {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			old := field.String()
			if updated := ReplaceKeyReferences(old, kvMap, logger); updated != old {
				field.SetString(updated)
				logger.Debug().Str("field", typ.Field(i).Name).Msg("Resolved key reference")
			}

		case reflect.Struct:
			replaceInStructValue(field, kvMap, logger)

		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				elem := field.Index(j)
				elem.SetString(ReplaceKeyReferences(elem.String(), kvMap, logger))
			}
		}
	}
}
