package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrParseFailed is returned by SmartParse when no strategy yields valid JSON.
var ErrParseFailed = errors.New("all parsing strategies failed")

// RequireFields reports the first required field of a struct that is still
// at its zero value; blank strings count as missing. Fields are named by
// their json tag. With no names given, every field whose tag lacks
// omitempty is required. Models regularly drop fields; this catches it
// before the value reaches a caller.
func RequireFields(schema interface{}, names ...string) error {
	v := reflect.ValueOf(schema)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if len(names) > 0 {
			if !wanted[name] {
				continue
			}
			delete(wanted, name)
		} else if strings.Contains(opts, "omitempty") {
			continue
		}
		f := v.Field(i)
		if f.IsZero() || (f.Kind() == reflect.String && strings.TrimSpace(f.String()) == "") {
			return fmt.Errorf("JSON_SCHEMA_VIOLATION: required field '%s' is missing or empty", name)
		}
	}
	for name := range wanted {
		return fmt.Errorf("JSON_SCHEMA_VIOLATION: required field '%s' is not part of the result", name)
	}
	return nil
}

// RepairJSON attempts to fix common JSON errors from LLM outputs:
// missing quotes around keys, single quotes, unclosed arrays/objects,
// trailing commas, comments, and surrounding markdown code fences.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return string(jsonBytes), nil
}

// ParseHJSONToStruct parses Hjson directly into a Go struct.
func ParseHJSONToStruct(hjsonData []byte, schema interface{}) error {
	if err := hjson.Unmarshal(hjsonData, schema); err != nil {
		return fmt.Errorf("HJSON_UNMARSHAL_ERROR: %w", err)
	}
	return nil
}

// SmartParse tries multiple parsing strategies to extract valid JSON into
// schema and returns the JSON text that succeeded.
// Order of attempts:
// 1. Standard JSON parse (after stripping a code fence)
// 2. JSON repair
// 3. Hjson parse (most lenient)
func SmartParse(input string, schema interface{}) (string, error) {
	cleaned := CleanMarkdown(input)

	if err := json.Unmarshal([]byte(cleaned), schema); err == nil {
		return cleaned, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	if hjsonResult, err := ParseHJSON(cleaned); err == nil {
		if err := json.Unmarshal([]byte(hjsonResult), schema); err == nil {
			return hjsonResult, nil
		}
	}

	return "", ErrParseFailed
}
