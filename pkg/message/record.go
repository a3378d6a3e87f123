package message

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/thermostart/otdecode/pkg/opentherm"
)

// Record is the decoded form of one telemetry message. Its flat form (see
// Fields) matches the columns of the parsed_messages table.
// CBOR encoding uses integer keys for compactness.
type Record struct {
	ID               int64     `cbor:"1,keyasint,omitempty"`
	DeviceHardwareID string    `cbor:"2,keyasint,omitempty"`
	Timestamp        time.Time `cbor:"3,keyasint,omitempty"`

	// OpenTherm holds the raw value of every known OpenTherm key, nil when
	// the message did not carry it.
	OpenTherm map[string]*string `cbor:"4,keyasint"`

	// Parsed holds the decoded value of every OpenTherm key that carried
	// data: float64 for F8.8 values, JSON text for flag values.
	Parsed map[string]any `cbor:"5,keyasint"`

	U   *string `cbor:"10,keyasint,omitempty"` // hardware ID as reported by the device
	P   *string `cbor:"11,keyasint,omitempty"` // device password
	FW  *string `cbor:"12,keyasint,omitempty"` // firmware version
	HLP *string `cbor:"13,keyasint,omitempty"` // help/diagnostic text

	CV    int64 `cbor:"20,keyasint,omitempty"` // calendar version
	HW    int64 `cbor:"21,keyasint,omitempty"` // hardware version
	SV    int64 `cbor:"22,keyasint,omitempty"` // schedule version
	SRC   int64 `cbor:"23,keyasint,omitempty"` // temperature source
	PV    int64 `cbor:"24,keyasint,omitempty"` // protocol version
	HV    int64 `cbor:"25,keyasint,omitempty"` // hardware variant
	TH    int64 `cbor:"26,keyasint,omitempty"` // thermostat (room) temperature
	TC    int64 `cbor:"27,keyasint,omitempty"` // current target temperature
	OTime int64 `cbor:"28,keyasint,omitempty"` // OpenTherm timer
	ORX   int64 `cbor:"29,keyasint,omitempty"` // OpenTherm frames received
	OT    int64 `cbor:"30,keyasint,omitempty"` // OpenTherm mode
	OO    int64 `cbor:"31,keyasint,omitempty"` // OpenTherm on/off
	TA    int64 `cbor:"32,keyasint,omitempty"` // temperature adjustment
	Dim   int64 `cbor:"33,keyasint,omitempty"` // LED dim level
	SL    int64 `cbor:"34,keyasint,omitempty"` // status LED
	DV    int64 `cbor:"35,keyasint,omitempty"` // device variant
	CSV   int64 `cbor:"36,keyasint,omitempty"` // configuration settings version
	TO    int64 `cbor:"37,keyasint,omitempty"` // time offset
	TS    int64 `cbor:"38,keyasint,omitempty"` // device timestamp
	SD    int64 `cbor:"39,keyasint,omitempty"` // screen display mode

	KP  float64 `cbor:"50,keyasint,omitempty"` // PID proportional gain
	TI  float64 `cbor:"51,keyasint,omitempty"` // PID integral time
	TD  float64 `cbor:"52,keyasint,omitempty"` // PID derivative time
	FRC float64 `cbor:"53,keyasint,omitempty"`
	Out float64 `cbor:"54,keyasint,omitempty"` // controller output
	PD  float64 `cbor:"55,keyasint,omitempty"`
	DD  float64 `cbor:"56,keyasint,omitempty"`
	LRN float64 `cbor:"57,keyasint,omitempty"` // learned heating rate
}

// FieldKind is the column type of an auxiliary field.
type FieldKind uint8

const (
	// KindString fields pass through as-is and default to null.
	KindString FieldKind = iota
	// KindInt fields parse as base-10 integers and default to 0.
	KindInt
	// KindFloat fields parse as floating point and default to 0.0.
	KindFloat
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// auxField binds an auxiliary message key to its Record field.
// ptr returns a **string, *int64 or *float64 depending on kind.
type auxField struct {
	name string
	kind FieldKind
	ptr  func(*Record) any
}

func stringField(name string, p func(*Record) **string) auxField {
	return auxField{name: name, kind: KindString, ptr: func(r *Record) any { return p(r) }}
}

func intField(name string, p func(*Record) *int64) auxField {
	return auxField{name: name, kind: KindInt, ptr: func(r *Record) any { return p(r) }}
}

func floatField(name string, p func(*Record) *float64) auxField {
	return auxField{name: name, kind: KindFloat, ptr: func(r *Record) any { return p(r) }}
}

// Columns before the OpenTherm block.
var auxHead = []auxField{
	stringField("u", func(r *Record) **string { return &r.U }),
	stringField("p", func(r *Record) **string { return &r.P }),
	intField("cv", func(r *Record) *int64 { return &r.CV }),
	intField("hw", func(r *Record) *int64 { return &r.HW }),
	stringField("fw", func(r *Record) **string { return &r.FW }),
	intField("sv", func(r *Record) *int64 { return &r.SV }),
	intField("src", func(r *Record) *int64 { return &r.SRC }),
	intField("pv", func(r *Record) *int64 { return &r.PV }),
	intField("hv", func(r *Record) *int64 { return &r.HV }),
	intField("th", func(r *Record) *int64 { return &r.TH }),
	intField("tc", func(r *Record) *int64 { return &r.TC }),
}

// Columns after the OpenTherm block.
var auxTail = []auxField{
	intField("otime", func(r *Record) *int64 { return &r.OTime }),
	floatField("kp", func(r *Record) *float64 { return &r.KP }),
	floatField("ti", func(r *Record) *float64 { return &r.TI }),
	floatField("td", func(r *Record) *float64 { return &r.TD }),
	floatField("frc", func(r *Record) *float64 { return &r.FRC }),
	floatField("out", func(r *Record) *float64 { return &r.Out }),
	intField("orx", func(r *Record) *int64 { return &r.ORX }),
	intField("ot", func(r *Record) *int64 { return &r.OT }),
	floatField("pd", func(r *Record) *float64 { return &r.PD }),
	floatField("dd", func(r *Record) *float64 { return &r.DD }),
	intField("oo", func(r *Record) *int64 { return &r.OO }),
	intField("ta", func(r *Record) *int64 { return &r.TA }),
	intField("dim", func(r *Record) *int64 { return &r.Dim }),
	intField("sl", func(r *Record) *int64 { return &r.SL }),
	intField("dv", func(r *Record) *int64 { return &r.DV }),
	intField("csv", func(r *Record) *int64 { return &r.CSV }),
	floatField("lrn", func(r *Record) *float64 { return &r.LRN }),
	intField("to", func(r *Record) *int64 { return &r.TO }),
	intField("ts", func(r *Record) *int64 { return &r.TS }),
	intField("sd", func(r *Record) *int64 { return &r.SD }),
	stringField("hlp", func(r *Record) **string { return &r.HLP }),
}

var auxFields = append(append([]auxField(nil), auxHead...), auxTail...)

// knownKeys is resolved once; the table never changes.
var knownKeys = opentherm.KnownKeys()

// ParsedPrefix prefixes the column name of decoded OpenTherm values.
const ParsedPrefix = "parsed_"

var columns = func() []string {
	cols := []string{"id", "device_hardware_id", "timestamp"}
	for _, f := range auxHead {
		cols = append(cols, f.name)
	}
	for _, k := range knownKeys {
		cols = append(cols, k.Key)
	}
	for _, k := range knownKeys {
		cols = append(cols, ParsedPrefix+k.Key)
	}
	for _, f := range auxTail {
		cols = append(cols, f.name)
	}
	return cols
}()

// Columns returns the column names of the flat record in schema order.
func Columns() []string {
	return append([]string(nil), columns...)
}

// AuxiliaryField describes one auxiliary column.
type AuxiliaryField struct {
	Name string
	Kind FieldKind
}

// AuxiliaryFields returns the auxiliary columns in schema order.
func AuxiliaryFields() []AuxiliaryField {
	out := make([]AuxiliaryField, len(auxFields))
	for i, f := range auxFields {
		out[i] = AuxiliaryField{Name: f.name, Kind: f.kind}
	}
	return out
}

// assign coerces raw into the field. Absent values leave the zero default.
func (f auxField) assign(r *Record, raw string, present bool) error {
	switch p := f.ptr(r).(type) {
	case **string:
		if present {
			s := raw
			*p = &s
		}
	case *int64:
		if !present {
			return nil
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %w", err)
		}
		*p = v
	case *float64:
		if !present {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("not a number: %w", err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("not a finite number")
		}
		*p = v
	}
	return nil
}

func (f auxField) value(r *Record) any {
	switch p := f.ptr(r).(type) {
	case **string:
		if *p == nil {
			return nil
		}
		return **p
	case *int64:
		return *p
	case *float64:
		return *p
	}
	return nil
}

// Raw returns the raw value of an OpenTherm key.
func (r *Record) Raw(key string) (string, bool) {
	v := r.OpenTherm[key]
	if v == nil {
		return "", false
	}
	return *v, true
}

// ParsedFloat returns the decoded value of an F8.8 key.
func (r *Record) ParsedFloat(key string) (float64, bool) {
	f, ok := r.Parsed[key].(float64)
	return f, ok
}

// ParsedJSON returns the JSON text of a decoded flag key.
func (r *Record) ParsedJSON(key string) (string, bool) {
	s, ok := r.Parsed[key].(string)
	return s, ok
}

// Fields returns the flat record keyed by column name. parsed_<key>
// entries exist only for decoded keys; id, device_hardware_id and
// timestamp only when set.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(columns))
	if r.ID != 0 || r.DeviceHardwareID != "" {
		out["id"] = r.ID
		out["device_hardware_id"] = r.DeviceHardwareID
	}
	if !r.Timestamp.IsZero() {
		out["timestamp"] = r.Timestamp
	}
	for _, f := range auxFields {
		out[f.name] = f.value(r)
	}
	for _, k := range knownKeys {
		if v := r.OpenTherm[k.Key]; v != nil {
			out[k.Key] = *v
		} else {
			out[k.Key] = nil
		}
		if v, ok := r.Parsed[k.Key]; ok {
			out[ParsedPrefix+k.Key] = v
		}
	}
	return out
}

// Values returns the flat record in Columns order, nil for missing values.
func (r *Record) Values() []any {
	fields := r.Fields()
	vals := make([]any, len(columns))
	for i, c := range columns {
		vals[i] = fields[c]
	}
	return vals
}

// MarshalJSON encodes the flat record as a JSON object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Fields()
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, c := range columns {
		v, ok := fields[c]
		if !ok {
			continue
		}
		if t, isTime := v.(time.Time); isTime {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		enc, err := opentherm.EncodeJSON(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(strconv.Quote(c))
		buf.WriteByte(':')
		buf.WriteString(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
