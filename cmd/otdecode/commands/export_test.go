package commands

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/recordfile"
)

func TestRunExportJSONL(t *testing.T) {
	path := sampleFile(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out, recordfile.Filter{ParsedKey: "ot25"}); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	recs := decodeLines(t, string(data))
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0]["parsed_ot25"] != 60.5 {
		t.Errorf("parsed_ot25 = %v, want 60.5", recs[0]["parsed_ot25"])
	}
}

func TestRunExportCSV(t *testing.T) {
	path := sampleFile(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out, recordfile.Filter{}); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}

	header := rows[0]
	if strings.Join(header, ",") != strings.Join(message.Columns(), ",") {
		t.Errorf("header mismatch: %v", header)
	}

	col := func(name string) int {
		for i, c := range header {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}

	first := rows[1]
	if first[col("id")] != "1" {
		t.Errorf("id = %q", first[col("id")])
	}
	if first[col("timestamp")] != "2024-01-15T06:00:00Z" {
		t.Errorf("timestamp = %q", first[col("timestamp")])
	}
	if first[col("parsed_ot1")] != "15.1015625" {
		t.Errorf("parsed_ot1 = %q", first[col("parsed_ot1")])
	}
	if first[col("th")] != "2050" {
		t.Errorf("th = %q", first[col("th")])
	}
	if first[col("p")] != "" {
		t.Errorf("p = %q, want empty", first[col("p")])
	}
	if rows[2][col("parsed_ot25")] != "" {
		t.Errorf("sentinel should export empty, got %q", rows[2][col("parsed_ot25")])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := sampleFile(t)
	if err := RunExport(path, "xml", "", recordfile.Filter{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
