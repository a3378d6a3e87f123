// Package opentherm decodes the packed OpenTherm data values reported by
// Thermostart thermostats.
//
// Only the data items the thermostat forwards are handled. Each item is
// identified by its message key ("ot0", "ot1", ...) and carries a 16-bit
// value transmitted as a hexadecimal string. The value is interpreted
// according to the item's EncodingKind:
//
//   - FixedPoint88: unsigned F8.8, high byte integer part, low byte
//     fractional part over 256.
//   - MasterSlaveStatus: high byte master flags, low byte slave flags.
//   - SlaveConfig: high byte configuration flags, low byte member ID.
//
// # Dispatch
//
// KnownKeys is the single declarative table mapping message keys to their
// encodings. Decode dispatches on the EncodingKind through a function table,
// so supporting a new data item only requires a table entry:
//
//	v, err := opentherm.DecodeKey("ot25", "0x2d80") // 45.5
//
// All functions in this package are pure and safe for concurrent use.
package opentherm
