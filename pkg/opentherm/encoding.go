package opentherm

import (
	"fmt"
	"strings"
)

// EncodingKind identifies how a 16-bit data value is packed.
type EncodingKind uint8

const (
	// FixedPoint88 is an F8.8 value: integer part in the high byte,
	// fractional part (n/256) in the low byte.
	FixedPoint88 EncodingKind = iota + 1

	// MasterSlaveStatus holds master status flags in the high byte and
	// slave status flags in the low byte (data ID 0).
	MasterSlaveStatus

	// SlaveConfig holds slave configuration flags in the high byte and the
	// slave member ID in the low byte (data ID 3).
	SlaveConfig
)

// String returns the encoding name used in the OpenTherm data tables.
func (k EncodingKind) String() string {
	switch k {
	case FixedPoint88:
		return "f8.8"
	case MasterSlaveStatus:
		return "flags"
	case SlaveConfig:
		return "flags.u8"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(k))
	}
}

// ParseEncodingKind parses an encoding name as returned by String.
func ParseEncodingKind(s string) (EncodingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f8.8":
		return FixedPoint88, nil
	case "flags":
		return MasterSlaveStatus, nil
	case "flags.u8":
		return SlaveConfig, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// IsFlags reports whether values of this kind decode to flag objects
// rather than scalars.
func (k EncodingKind) IsFlags() bool {
	return k == MasterSlaveStatus || k == SlaveConfig
}

// KnownKey describes one supported OpenTherm data item.
type KnownKey struct {
	// Key is the message key used by the thermostat ("ot25").
	Key string

	// ID is the OpenTherm data ID.
	ID uint8

	// Kind is the value encoding.
	Kind EncodingKind

	// Description is the data item name from the OpenTherm tables.
	Description string

	// Unit is the physical unit of scalar values, if any.
	Unit string
}

// knownKeys is ordered by data ID and never mutated.
var knownKeys = []KnownKey{
	{Key: "ot0", ID: 0, Kind: MasterSlaveStatus, Description: "Master status flags / Slave status flags"},
	{Key: "ot1", ID: 1, Kind: FixedPoint88, Description: "CH water temperature control setpoint", Unit: "°C"},
	{Key: "ot3", ID: 3, Kind: SlaveConfig, Description: "Slave configuration flags / Slave member ID code"},
	{Key: "ot17", ID: 17, Kind: FixedPoint88, Description: "Relative modulation level", Unit: "%"},
	{Key: "ot18", ID: 18, Kind: FixedPoint88, Description: "Water pressure in CH circuit", Unit: "bar"},
	{Key: "ot19", ID: 19, Kind: FixedPoint88, Description: "Water flow rate in DHW circuit", Unit: "l/min"},
	{Key: "ot25", ID: 25, Kind: FixedPoint88, Description: "Flow water temperature from boiler", Unit: "°C"},
	{Key: "ot26", ID: 26, Kind: FixedPoint88, Description: "Domestic hot water temperature", Unit: "°C"},
	{Key: "ot27", ID: 27, Kind: FixedPoint88, Description: "Outside air temperature", Unit: "°C"},
	{Key: "ot28", ID: 28, Kind: FixedPoint88, Description: "Return water temperature to boiler", Unit: "°C"},
	{Key: "ot34", ID: 34, Kind: FixedPoint88, Description: "Boiler heat exchanger temperature", Unit: "°C"},
	{Key: "ot56", ID: 56, Kind: FixedPoint88, Description: "DHW setpoint", Unit: "°C"},
	{Key: "ot125", ID: 125, Kind: FixedPoint88, Description: "Implemented version of OpenTherm in the slave"},
}

var keyIndex = func() map[string]KnownKey {
	m := make(map[string]KnownKey, len(knownKeys))
	for _, k := range knownKeys {
		m[k.Key] = k
	}
	return m
}()

// KnownKeys returns the supported data items in data ID order.
// The returned slice is a copy.
func KnownKeys() []KnownKey {
	out := make([]KnownKey, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// Lookup returns the table entry for a message key.
func Lookup(key string) (KnownKey, bool) {
	k, ok := keyIndex[key]
	return k, ok
}

// NoData is the value the thermostat firmware reports for data items it has
// not read from the boiler yet.
const NoData = "0xdead"

// HasData reports whether a raw value carries data, i.e. it is neither
// empty nor the NoData marker.
func HasData(raw string) bool {
	return raw != "" && raw != NoData
}

// DecodeFunc decodes one hexadecimal value. The result is a float64,
// Status or SlaveConfiguration depending on the encoding.
type DecodeFunc func(hex string) (any, error)

var decoders = map[EncodingKind]DecodeFunc{
	FixedPoint88: func(s string) (any, error) {
		return DecodeFixedPoint88(s)
	},
	MasterSlaveStatus: func(s string) (any, error) {
		return DecodeMasterSlaveStatus(s)
	},
	SlaveConfig: func(s string) (any, error) {
		return DecodeSlaveConfig(s)
	},
}

// Decode decodes a hexadecimal value with the decoder registered for kind.
func Decode(kind EncodingKind, hex string) (any, error) {
	fn, ok := decoders[kind]
	if !ok {
		return nil, &DecodeError{Kind: kind, Input: hex, Err: ErrUnknownEncoding}
	}
	return fn(hex)
}

// DecodeKey decodes the value of a known message key.
func DecodeKey(key, hex string) (any, error) {
	k, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return Decode(k.Kind, hex)
}
