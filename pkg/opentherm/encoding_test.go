package opentherm

import (
	"errors"
	"testing"
)

func TestKnownKeysTable(t *testing.T) {
	keys := KnownKeys()
	if len(keys) != 13 {
		t.Fatalf("len(KnownKeys()) = %d, want 13", len(keys))
	}

	want := map[string]EncodingKind{
		"ot0":   MasterSlaveStatus,
		"ot1":   FixedPoint88,
		"ot3":   SlaveConfig,
		"ot17":  FixedPoint88,
		"ot18":  FixedPoint88,
		"ot19":  FixedPoint88,
		"ot25":  FixedPoint88,
		"ot26":  FixedPoint88,
		"ot27":  FixedPoint88,
		"ot28":  FixedPoint88,
		"ot34":  FixedPoint88,
		"ot56":  FixedPoint88,
		"ot125": FixedPoint88,
	}
	for _, k := range keys {
		kind, ok := want[k.Key]
		if !ok {
			t.Errorf("unexpected key %q", k.Key)
			continue
		}
		if k.Kind != kind {
			t.Errorf("%s: Kind = %s, want %s", k.Key, k.Kind, kind)
		}
		if _, ok := decoders[k.Kind]; !ok {
			t.Errorf("%s: no decoder registered for %s", k.Key, k.Kind)
		}
	}
}

func TestKnownKeysReturnsCopy(t *testing.T) {
	keys := KnownKeys()
	keys[0].Key = "mutated"

	if got := KnownKeys()[0].Key; got != "ot0" {
		t.Errorf("KnownKeys()[0].Key = %q after mutating a copy, want ot0", got)
	}
}

func TestLookup(t *testing.T) {
	k, ok := Lookup("ot27")
	if !ok {
		t.Fatal("Lookup(ot27) not found")
	}
	if k.ID != 27 || k.Kind != FixedPoint88 {
		t.Errorf("Lookup(ot27) = %+v", k)
	}

	if _, ok := Lookup("ot99"); ok {
		t.Error("Lookup(ot99) should not be found")
	}
}

func TestEncodingKindString(t *testing.T) {
	tests := []struct {
		kind EncodingKind
		want string
	}{
		{FixedPoint88, "f8.8"},
		{MasterSlaveStatus, "flags"},
		{SlaveConfig, "flags.u8"},
		{EncodingKind(42), "encoding(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseEncodingKind(t *testing.T) {
	for _, kind := range []EncodingKind{FixedPoint88, MasterSlaveStatus, SlaveConfig} {
		got, err := ParseEncodingKind(kind.String())
		if err != nil {
			t.Fatalf("ParseEncodingKind(%q) error = %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("ParseEncodingKind(%q) = %s, want %s", kind.String(), got, kind)
		}
	}

	if _, err := ParseEncodingKind("u16"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("ParseEncodingKind(u16) error = %v, want ErrUnknownEncoding", err)
	}
}

func TestHasData(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{NoData, false},
		{"0x0000", true},
		{"0x4301", true},
	}
	for _, tt := range tests {
		if got := HasData(tt.raw); got != tt.want {
			t.Errorf("HasData(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeDispatch(t *testing.T) {
	v, err := DecodeKey("ot25", "0x2d80")
	if err != nil {
		t.Fatalf("DecodeKey(ot25) error = %v", err)
	}
	if f, ok := v.(float64); !ok || f != 45.5 {
		t.Errorf("DecodeKey(ot25) = %#v, want 45.5", v)
	}

	v, err = DecodeKey("ot0", "0x0300")
	if err != nil {
		t.Fatalf("DecodeKey(ot0) error = %v", err)
	}
	if _, ok := v.(Status); !ok {
		t.Errorf("DecodeKey(ot0) = %T, want Status", v)
	}

	v, err = DecodeKey("ot3", "0x0105")
	if err != nil {
		t.Fatalf("DecodeKey(ot3) error = %v", err)
	}
	if _, ok := v.(SlaveConfiguration); !ok {
		t.Errorf("DecodeKey(ot3) = %T, want SlaveConfiguration", v)
	}
}

func TestDecodeUnknown(t *testing.T) {
	if _, err := DecodeKey("ot99", "0x0000"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("DecodeKey(ot99) error = %v, want ErrUnknownKey", err)
	}
	if _, err := Decode(EncodingKind(0), "0x0000"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Decode(0) error = %v, want ErrUnknownEncoding", err)
	}
}
