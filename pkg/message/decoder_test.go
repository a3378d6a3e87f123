package message

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietDecoder() *Decoder {
	return NewDecoder(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func sampleMessage() RawMessage {
	return RawMessage{
		"u":     {"1234567890AB"},
		"p":     {"secret"},
		"cv":    {"3"},
		"hw":    {"5"},
		"fw":    {"30091"},
		"ot0":   {"0x4301"},
		"ot1":   {"0x0f1a"},
		"ot3":   {"0x0105"},
		"ot25":  {"0x2d80"},
		"ot27":  {"0xdead"},
		"kp":    {"1.5"},
		"ti":    {"300"},
		"lrn":   {"0.25"},
		"hlp":   {"ok"},
		"bogus": {"0x1234"},
	}
}

func TestDecodeFixedPointField(t *testing.T) {
	rec, err := quietDecoder().Decode(sampleMessage())
	require.NoError(t, err)

	v, ok := rec.ParsedFloat("ot1")
	require.True(t, ok)
	assert.Equal(t, 15.1015625, v)

	v, ok = rec.ParsedFloat("ot25")
	require.True(t, ok)
	assert.Equal(t, 45.5, v)
}

func TestDecodeFlagFieldsAsJSONText(t *testing.T) {
	rec, err := quietDecoder().Decode(sampleMessage())
	require.NoError(t, err)

	status, ok := rec.ParsedJSON("ot0")
	require.True(t, ok)
	assert.Contains(t, status, `"master_status": {"CH enable": 1, "DHW enable": 1`)
	assert.Contains(t, status, `"DHW blocking": 1`)
	assert.Contains(t, status, `"slave_status": {"Fault indication": 1, "CH mode": 0`)

	cfg, ok := rec.ParsedJSON("ot3")
	require.True(t, ok)
	assert.Contains(t, cfg, `"DHW present": 1`)
	assert.Contains(t, cfg, `"slave_member_id": 5`)
}

func TestDecodeSentinelOmitsParsedField(t *testing.T) {
	rec, err := quietDecoder().Decode(RawMessage{"ot1": {"0xdead"}})
	require.NoError(t, err)

	_, ok := rec.Parsed["ot1"]
	assert.False(t, ok)
	_, ok = rec.Fields()["parsed_ot1"]
	assert.False(t, ok)

	raw, ok := rec.Raw("ot1")
	assert.True(t, ok)
	assert.Equal(t, "0xdead", raw)
}

func TestDecodeMissingKey(t *testing.T) {
	rec, err := quietDecoder().Decode(RawMessage{"ot1": {"0x0100"}})
	require.NoError(t, err)

	fields := rec.Fields()
	_, ok := fields["parsed_ot27"]
	assert.False(t, ok)

	raw, present := fields["ot27"]
	assert.True(t, present, "raw column is always emitted")
	assert.Nil(t, raw)
}

func TestDecodeEmptySequenceIsAbsent(t *testing.T) {
	rec, err := quietDecoder().Decode(RawMessage{"ot25": {}, "cv": {}, "fw": {}})
	require.NoError(t, err)

	_, ok := rec.Raw("ot25")
	assert.False(t, ok)
	assert.Equal(t, int64(0), rec.CV)
	assert.Nil(t, rec.FW)
}

func TestDecodeMalformedAuxiliaryField(t *testing.T) {
	msg := sampleMessage()
	msg["cv"] = []string{"not_a_number"}

	rec, err := quietDecoder().Decode(msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedField))

	fe := FieldErrors(err)
	require.Len(t, fe, 1)
	assert.Equal(t, "cv", fe[0].Key)
	assert.Equal(t, "not_a_number", fe[0].Value)

	assert.Equal(t, int64(0), rec.CV)

	// Everything after the bad field is still decoded.
	assert.Equal(t, int64(5), rec.HW)
	assert.Equal(t, 1.5, rec.KP)
	assert.Equal(t, 300.0, rec.TI)
	require.NotNil(t, rec.HLP)
	assert.Equal(t, "ok", *rec.HLP)
	_, ok := rec.ParsedFloat("ot25")
	assert.True(t, ok)
}

func TestDecodeMalformedHexIsScoped(t *testing.T) {
	msg := sampleMessage()
	msg["ot1"] = []string{"0xzz"}
	msg["ot3"] = []string{"garbage"}

	rec, err := quietDecoder().Decode(msg)
	require.Error(t, err)

	fe := FieldErrors(err)
	require.Len(t, fe, 2)
	keys := []string{fe[0].Key, fe[1].Key}
	assert.ElementsMatch(t, []string{"ot1", "ot3"}, keys)

	_, ok := rec.Parsed["ot1"]
	assert.False(t, ok)
	_, ok = rec.Parsed["ot3"]
	assert.False(t, ok)

	raw, ok := rec.Raw("ot1")
	assert.True(t, ok)
	assert.Equal(t, "0xzz", raw)

	_, ok = rec.ParsedJSON("ot0")
	assert.True(t, ok)
	_, ok = rec.ParsedFloat("ot25")
	assert.True(t, ok)
}

func TestDecodeAuxiliaryCoercion(t *testing.T) {
	rec, err := quietDecoder().Decode(RawMessage{
		"th":  {" 215 "},
		"ts":  {"-3600"},
		"out": {"1e2"},
		"kp":  {"NaN"},
		"dim": {"12.5"},
		"fw":  {""},
	})

	fe := FieldErrors(err)
	require.Len(t, fe, 2)
	assert.ElementsMatch(t, []string{"kp", "dim"}, []string{fe[0].Key, fe[1].Key})

	assert.Equal(t, int64(215), rec.TH)
	assert.Equal(t, int64(-3600), rec.TS)
	assert.Equal(t, 100.0, rec.Out)
	assert.Equal(t, 0.0, rec.KP)
	assert.Equal(t, int64(0), rec.Dim)
	require.NotNil(t, rec.FW)
	assert.Equal(t, "", *rec.FW)
}

func TestDecodeDefaults(t *testing.T) {
	rec, err := quietDecoder().Decode(RawMessage{})
	require.NoError(t, err)

	fields := rec.Fields()
	for _, f := range AuxiliaryFields() {
		v, ok := fields[f.Name]
		require.True(t, ok, "field %s missing", f.Name)
		switch f.Kind {
		case KindString:
			assert.Nil(t, v, f.Name)
		case KindInt:
			assert.Equal(t, int64(0), v, f.Name)
		case KindFloat:
			assert.Equal(t, 0.0, v, f.Name)
		}
	}
	assert.Empty(t, rec.Parsed)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	rec, err := quietDecoder().Decode(sampleMessage())
	require.NoError(t, err)

	fields := rec.Fields()
	_, ok := fields["bogus"]
	assert.False(t, ok)
	_, ok = fields["parsed_bogus"]
	assert.False(t, ok)
}

func TestDecodeIsPure(t *testing.T) {
	dec := quietDecoder()
	msg := sampleMessage()

	a, errA := dec.Decode(msg)
	b, errB := dec.Decode(msg)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)

	// The record does not share storage with the input.
	msg["ot1"][0] = "0x0000"
	raw, _ := a.Raw("ot1")
	assert.Equal(t, "0x0f1a", raw)
}

func TestDecodeStoredCarriesIdentity(t *testing.T) {
	ts := time.Date(2024, 10, 6, 22, 26, 36, 0, time.UTC)
	rec, err := quietDecoder().DecodeStored(StoredMessage{
		ID:               42,
		DeviceHardwareID: "ABCDEF",
		Timestamp:        ts,
		Message:          RawMessage{"ot1": {"0x1400"}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, "ABCDEF", rec.DeviceHardwareID)
	assert.True(t, rec.Timestamp.Equal(ts))

	fields := rec.Fields()
	assert.Equal(t, int64(42), fields["id"])
	assert.Equal(t, "ABCDEF", fields["device_hardware_id"])
	assert.Equal(t, 20.0, fields["parsed_ot1"])
}

func TestDecodeLogsFieldErrors(t *testing.T) {
	var buf bytes.Buffer
	dec := NewDecoder(slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := dec.DecodeStored(StoredMessage{ID: 7, DeviceHardwareID: "dev", Message: RawMessage{"sv": {"x"}}})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "key=sv")
	assert.Contains(t, out, "msg_id=7")
	assert.Contains(t, out, "device_id=dev")
}

func TestPackageDecode(t *testing.T) {
	rec, err := Decode(RawMessage{"ot18": {"0x0180"}})
	require.NoError(t, err)
	v, ok := rec.ParsedFloat("ot18")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
}
