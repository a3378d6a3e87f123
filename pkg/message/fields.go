package message

import (
	"fmt"
	"strings"
	"time"
)

// RecordFromFields rebuilds a record from its flat form, the inverse of
// Fields. Unknown names are rejected. Numeric columns accept int64 and
// float64 interchangeably; string columns accept string or []byte.
func RecordFromFields(fields map[string]any) (Record, error) {
	rec := Record{
		OpenTherm: make(map[string]*string, len(knownKeys)),
		Parsed:    make(map[string]any),
	}
	for _, k := range knownKeys {
		rec.OpenTherm[k.Key] = nil
	}

	for name, v := range fields {
		if err := rec.setField(name, v); err != nil {
			return Record{}, fmt.Errorf("column %s: %w", name, err)
		}
	}
	return rec, nil
}

func (r *Record) setField(name string, v any) error {
	switch name {
	case "id":
		n, err := asInt(v)
		r.ID = n
		return err
	case "device_hardware_id":
		s, _, err := asString(v)
		r.DeviceHardwareID = s
		return err
	case "timestamp":
		switch t := v.(type) {
		case nil:
		case time.Time:
			r.Timestamp = t
		case string:
			ts, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return err
			}
			r.Timestamp = ts
		default:
			return fmt.Errorf("unexpected %T", v)
		}
		return nil
	}

	if key, ok := strings.CutPrefix(name, ParsedPrefix); ok && isKnownKey(key) {
		switch p := v.(type) {
		case nil:
		case float64:
			r.Parsed[key] = p
		case int64:
			r.Parsed[key] = float64(p)
		default:
			s, _, err := asString(v)
			if err != nil {
				return err
			}
			r.Parsed[key] = s
		}
		return nil
	}

	if isKnownKey(name) {
		s, ok, err := asString(v)
		if err != nil {
			return err
		}
		if ok {
			r.OpenTherm[name] = &s
		}
		return nil
	}

	for _, f := range auxFields {
		if f.name != name {
			continue
		}
		switch p := f.ptr(r).(type) {
		case **string:
			s, ok, err := asString(v)
			if err != nil {
				return err
			}
			if ok {
				*p = &s
			}
		case *int64:
			n, err := asInt(v)
			*p = n
			return err
		case *float64:
			f, err := asFloat(v)
			*p = f
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown column")
}

func isKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k.Key == key {
			return true
		}
	}
	return false
}

func asString(v any) (string, bool, error) {
	switch s := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return s, true, nil
	case []byte:
		return string(s), true, nil
	}
	return "", false, fmt.Errorf("unexpected %T", v)
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
