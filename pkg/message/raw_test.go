package message

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRawMessageFirst(t *testing.T) {
	m := RawMessage{
		"one":   {"a"},
		"two":   {"b", "c"},
		"empty": {},
	}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"one", "a", true},
		{"two", "b", true},
		{"empty", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := m.First(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("First(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}

	var nilMsg RawMessage
	if _, ok := nilMsg.First("any"); ok {
		t.Error("First on nil message should report absent")
	}
}

func TestParseRawMessage(t *testing.T) {
	data := []byte(`{"ot1": ["0x0f1a"], "cv": [3], "oo": [true], "fw": [null], "hw": null, "th": []}`)

	m, err := ParseRawMessage(data)
	if err != nil {
		t.Fatalf("ParseRawMessage() error = %v", err)
	}

	if v, _ := m.First("ot1"); v != "0x0f1a" {
		t.Errorf("ot1 = %q, want 0x0f1a", v)
	}
	if v, _ := m.First("cv"); v != "3" {
		t.Errorf("cv = %q, want 3", v)
	}
	if v, _ := m.First("oo"); v != "true" {
		t.Errorf("oo = %q, want true", v)
	}
	for _, key := range []string{"fw", "hw", "th"} {
		if _, ok := m.First(key); ok {
			t.Errorf("%s should read as absent", key)
		}
	}
}

func TestParseRawMessageMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"not an object", `["ot1"]`},
		{"null payload", `null`},
		{"bare string value", `{"ot1": "0x0f1a"}`},
		{"nested object", `{"ot1": [{"v": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRawMessage([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.name != "not json" && !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestStoredMessageJSON(t *testing.T) {
	data := []byte(`{"id": 9, "device_hardware_id": "AB12", "timestamp": "2024-10-06T22:26:36Z", "message": {"ot25": ["0x2d80"]}}`)

	var m StoredMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.ID != 9 || m.DeviceHardwareID != "AB12" {
		t.Errorf("identity = %d/%q", m.ID, m.DeviceHardwareID)
	}
	if v, _ := m.Message.First("ot25"); v != "0x2d80" {
		t.Errorf("ot25 = %q", v)
	}

	var nullMsg StoredMessage
	if err := json.Unmarshal([]byte(`{"id": 1, "message": null}`), &nullMsg); err != nil {
		t.Fatalf("Unmarshal(null message) error = %v", err)
	}
	if nullMsg.Message != nil {
		t.Errorf("Message = %v, want nil", nullMsg.Message)
	}
}
