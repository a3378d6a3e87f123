package opentherm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag is one named bit of a flag byte.
type Flag struct {
	Name string
	Bit  uint8 // 0 or 1
}

// FlagSet is an ordered set of named bits, starting at bit 0.
type FlagSet []Flag

func newFlagSet(names []string, b uint8) FlagSet {
	fs := make(FlagSet, len(names))
	for i, name := range names {
		fs[i] = Flag{Name: name, Bit: (b >> uint(i)) & 1}
	}
	return fs
}

// Get returns the bit value of the named flag.
func (fs FlagSet) Get(name string) (uint8, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Bit, true
		}
	}
	return 0, false
}

// Active returns the names of the flags that are set.
func (fs FlagSet) Active() []string {
	var names []string
	for _, f := range fs {
		if f.Bit == 1 {
			names = append(names, f.Name)
		}
	}
	return names
}

// Byte packs the flags back into their byte value.
func (fs FlagSet) Byte() uint8 {
	var b uint8
	for i, f := range fs {
		b |= (f.Bit & 1) << uint(i)
	}
	return b
}

// String renders the set as "name=bit" pairs in bit order.
func (fs FlagSet) String() string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.Name + "=" + string('0'+rune(f.Bit))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the set as a JSON object in bit order.
func (fs FlagSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := marshalNoEscape(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteByte('0' + f.Bit)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeJSON returns the compact JSON text of a decoded value without
// HTML escaping, so flag names such as "Master low-off&pump control" are
// kept verbatim.
func EncodeJSON(v any) (string, error) {
	b, err := marshalNoEscape(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatFlags returns the column text of a decoded flag value. Pairs are
// separated by ", " and names by ": ", matching rows already present in
// the parsed_messages table, so one column never holds two text forms.
func FormatFlags(v any) (string, error) {
	b, err := marshalNoEscape(v)
	if err != nil {
		return "", err
	}
	return string(spaceSeparators(b)), nil
}

// spaceSeparators adds a space after every ':' and ',' outside strings of
// compact JSON.
func spaceSeparators(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/4)
	inString, escaped := false, false
	for _, c := range b {
		out = append(out, c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ':' || c == ','):
			out = append(out, ' ')
		}
	}
	return out
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
