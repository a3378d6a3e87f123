package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCollectStats(t *testing.T) {
	stats, err := CollectStats(sampleFile(t))
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}

	if stats.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", stats.TotalRecords)
	}
	if len(stats.Devices) != 2 {
		t.Errorf("Devices = %d, want 2", len(stats.Devices))
	}
	if stats.Devices["dev-a"].Records != 2 {
		t.Errorf("dev-a records = %d, want 2", stats.Devices["dev-a"].Records)
	}
	if stats.KeysPresent["ot25"] != 3 {
		t.Errorf("ot25 present = %d, want 3", stats.KeysPresent["ot25"])
	}
	if stats.KeysDecoded["ot25"] != 2 {
		t.Errorf("ot25 decoded = %d, want 2", stats.KeysDecoded["ot25"])
	}
	if !stats.TimeRange.Start.Equal(base) || !stats.TimeRange.End.Equal(base.Add(2*time.Hour)) {
		t.Errorf("TimeRange = %v .. %v", stats.TimeRange.Start, stats.TimeRange.End)
	}
}

func TestRunStatsOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := RunStats(sampleFile(t), &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Records: 3",
		"Duration:   2h0m0s",
		"Devices: 2",
		"dev-a",
		"ot25",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestRunStatsEmptyFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunStats(createRecordFile(t), &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Records: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
