package commands

import (
	"fmt"

	"github.com/thermostart/otdecode/pkg/recordfile"
)

// RunFilter copies the records matching filter into a new record file and
// returns how many were written.
func RunFilter(path, output string, filter recordfile.Filter) (int, error) {
	reader, err := recordfile.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open record file: %w", err)
	}
	defer reader.Close()

	writer, err := recordfile.NewWriter(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	err = reader.ForEach(func(e recordfile.Entry) error {
		return writer.Write(e.Record)
	})
	n := writer.Count()
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	return n, err
}
