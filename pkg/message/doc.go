// Package message turns raw Thermostart telemetry messages into flat,
// typed records.
//
// A thermostat message is a set of key/value pairs where every value is
// wrapped in a one-element array, the shape produced by the upstream form
// decoder:
//
//	{"ot25": ["0x2d80"], "cv": ["3"], "fw": ["30091"]}
//
// RawMessage models that shape and only exposes it through First, which
// returns the first element or reports it as absent.
//
// The Decoder walks the OpenTherm key table (see package opentherm), copies
// every raw OpenTherm value, decodes those that carry data into parsed_<key>
// fields, and coerces a fixed set of auxiliary fields (versions, counters,
// control loop coefficients, display settings) to their column types.
//
// # Error Handling
//
// Decoding never fails as a whole. A malformed field is logged, replaced by
// its default (or left out for parsed_<key> fields) and reported as a
// *FieldError joined into the returned error, while the returned Record is
// always complete for all other fields:
//
//	rec, err := dec.Decode(raw)
//	if err != nil {
//	    // rec is still valid; err lists the fields that fell back
//	}
//
// DecodeBatch decodes many stored messages, skipping messages whose payload
// could not be read at all.
package message
