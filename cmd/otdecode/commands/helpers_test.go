package commands

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/recordfile"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func record(t *testing.T, id int64, device string, ts time.Time, raw message.RawMessage) message.Record {
	t.Helper()
	rec, _ := message.NewDecoder(quietLogger).DecodeStored(message.StoredMessage{
		ID:               id,
		DeviceHardwareID: device,
		Timestamp:        ts,
		Message:          raw,
	})
	return rec
}

func createRecordFile(t *testing.T, recs ...message.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.otr")
	w, err := recordfile.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	w.Close()
	return path
}

var base = time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)

func sampleFile(t *testing.T) string {
	return createRecordFile(t,
		record(t, 1, "dev-a", base, message.RawMessage{
			"ot0":  {"0x4301"},
			"ot1":  {"0x0f1a"},
			"ot25": {"0x3c80"},
			"th":   {"2050"},
			"tc":   {"2100"},
			"fw":   {"4.2"},
		}),
		record(t, 2, "dev-b", base.Add(time.Hour), message.RawMessage{
			"ot25": {"0xdead"},
		}),
		record(t, 3, "dev-a", base.Add(2*time.Hour), message.RawMessage{
			"ot25": {"0x3d00"},
		}),
	)
}
