package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RawMessage is one telemetry sample as received from a thermostat: every
// key maps to a one-element sequence holding the value.
type RawMessage map[string][]string

// First returns the first element stored under key. It reports false when
// the key is missing or its sequence is empty.
func (m RawMessage) First(key string) (string, bool) {
	vals, ok := m[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Keys returns the number of keys in the message.
func (m RawMessage) Keys() int {
	return len(m)
}

// ParseRawMessage decodes a JSON payload of the form {"key": ["value"]}.
func ParseRawMessage(data []byte) (RawMessage, error) {
	var m RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is null", ErrMalformedMessage)
	}
	return m, nil
}

// UnmarshalJSON accepts string, number and boolean elements. Null elements
// and null values are dropped, so a key holding [null] reads as absent.
// A null payload leaves the message nil.
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}
	var in map[string]json.RawMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	out := make(RawMessage, len(in))
	for key, rawVals := range in {
		if bytes.Equal(bytes.TrimSpace(rawVals), []byte("null")) {
			out[key] = nil
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(rawVals, &elems); err != nil {
			return fmt.Errorf("%w: key %q is not an array", ErrMalformedMessage, key)
		}
		vals := make([]string, 0, len(elems))
		for _, e := range elems {
			s, isNull, err := elementString(e)
			if err != nil {
				return fmt.Errorf("%w: key %q: %v", ErrMalformedMessage, key, err)
			}
			if isNull {
				continue
			}
			vals = append(vals, s)
		}
		out[key] = vals
	}
	*m = out
	return nil
}

func elementString(e json.RawMessage) (string, bool, error) {
	e = bytes.TrimSpace(e)
	if len(e) == 0 {
		return "", false, fmt.Errorf("empty element")
	}
	switch e[0] {
	case 'n':
		return "", true, nil
	case '"':
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			return "", false, err
		}
		return s, false, nil
	case '{', '[':
		return "", false, fmt.Errorf("nested values are not supported")
	default:
		// numbers and booleans keep their literal text
		return string(e), false, nil
	}
}

// StoredMessage is a raw message together with the metadata of the row it
// was stored in. Message is nil when the stored payload could not be read.
type StoredMessage struct {
	ID               int64      `json:"id"`
	DeviceHardwareID string     `json:"device_hardware_id"`
	Timestamp        time.Time  `json:"timestamp"`
	Message          RawMessage `json:"message"`
}
