package shared

import (
	"encoding"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidQuery is returned by BindQuery for a value that does not parse.
var ErrInvalidQuery = errors.New("invalid query parameter")

var (
	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// BindQuery fills the struct pointed to by v from the URL query, using the
// `query:"name"` tag (lower-cased field name without one, "-" skips).
// Supported field types are strings, integers, bools, time.Time (RFC 3339
// or YYYY-MM-DD), encoding.TextUnmarshaler implementations such as
// uuid.UUID, pointers to those, and slices. Slice values may repeat the
// parameter or be comma separated.
func BindQuery(r *http.Request, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidQuery)
	}
	rv = rv.Elem()
	rt := rv.Type()
	values := r.URL.Query()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}
		name, skip := queryName(sf)
		if skip {
			continue
		}
		raw, ok := values[name]
		if !ok || len(raw) == 0 {
			continue
		}
		if err := setQueryValue(field, raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidQuery, name, err)
		}
	}
	return nil
}

func queryName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("query")
	switch tag {
	case "":
		return strings.ToLower(sf.Name), false
	case "-":
		return "", true
	}
	return strings.Split(tag, ",")[0], false
}

func setQueryValue(field reflect.Value, raw []string) error {
	t := field.Type()

	if t.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(t.Elem()))
		}
		return setQueryValue(field.Elem(), raw)
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		var parts []string
		for _, v := range raw {
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		}
		slice := reflect.MakeSlice(t, len(parts), len(parts))
		for i, p := range parts {
			if err := setQueryValue(slice.Index(i), []string{p}); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	value := strings.TrimSpace(raw[0])

	if t == timeType {
		ts, err := parseQueryTime(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(ts))
		return nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value))
	}

	switch t.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, t.Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", value)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", t)
	}
	return nil
}

func parseQueryTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time value %q", value)
	}
	return ts, nil
}
