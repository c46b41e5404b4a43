package wire

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var (
	stringSliceType = reflect.TypeOf([]string(nil))
	idType          = reflect.TypeOf(ID(""))
	idSliceType     = reflect.TypeOf([]ID(nil))
	dateType        = reflect.TypeOf(Date{})
)

// StringList is the canonical decoder for array-of-string fields. Clients send
// these as a native array, a JSON-encoded array string, a comma-joined string
// or a single bare value; all of them collapse to trimmed, non-empty items.
func StringList(raw any) []string {
	out := []string{}
	switch v := raw.(type) {
	case nil:
		return out
	case []string:
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return out
		}
		if strings.HasPrefix(s, "[") {
			var parsed []any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return StringList(parsed)
			}
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			out = append(out, s)
		}
		return out
	}
}

// Decode maps a loosely typed payload (a decoded JSON object or multipart form
// values) onto a typed request struct using the struct's json tags.
func Decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       fieldHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// fieldHook routes each field to the canonical decoder for its shape.
func fieldHook(from, to reflect.Type, data any) (any, error) {
	if data == nil {
		return nil, nil
	}
	switch to {
	case idType:
		return decodeID(data)
	case dateType:
		return decodeDate(data)
	case stringSliceType:
		return StringList(data), nil
	case idSliceType:
		return decodeIDList(data), nil
	}
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	target := to
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
		switch target.Kind() {
		case reflect.Bool, reflect.Int, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
			// a blank form field leaves the optional value unset
			if s == "" {
				return nil, nil
			}
			return data, nil
		}
	}
	switch target.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
	default:
		return data, nil
	}
	if target == stringSliceType || target == idSliceType || target == dateType {
		return data, nil
	}
	return decodeJSONText(s, target)
}

func decodeID(data any) (any, error) {
	switch v := data.(type) {
	case string:
		return ID(strings.TrimSpace(v)), nil
	case map[string]any:
		if oid, ok := v["$oid"].(string); ok {
			return ID(strings.TrimSpace(oid)), nil
		}
		return nil, fmt.Errorf("wire: object id must carry $oid")
	}
	return data, nil
}

func decodeDate(data any) (any, error) {
	switch v := data.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return Date{}, nil
		}
		return ParseDate(v)
	case map[string]any:
		raw, _ := v["$date"].(string)
		if strings.TrimSpace(raw) == "" {
			return Date{}, nil
		}
		return ParseDate(raw)
	case time.Time:
		return NewDate(v), nil
	}
	return data, nil
}

func decodeIDList(data any) []ID {
	items, ok := data.([]any)
	if !ok {
		return IDs(StringList(data))
	}
	out := make([]ID, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			item = m["$oid"]
		}
		if item == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
			out = append(out, ID(s))
		}
	}
	return out
}

// decodeJSONText expands JSON submitted as text in a multipart field, such as
// the locations array of a vendor form.
func decodeJSONText(s string, target reflect.Type) (any, error) {
	if s == "" {
		return reflect.Zero(target).Interface(), nil
	}
	if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") {
		return s, nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, fmt.Errorf("wire: invalid json value: %w", err)
	}
	return parsed, nil
}
