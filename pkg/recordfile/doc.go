// Package recordfile stores decoded telemetry records in CBOR files.
//
// A record file is a plain concatenation of CBOR-encoded entries. Each entry
// carries the schema version it was written with, so files produced by an
// older build can still be read as long as the major version matches.
//
// # Basic Usage
//
//	w, err := recordfile.NewWriter("/var/lib/otdecode/backfill.otr")
//	...
//	err = w.Write(rec)
//	w.Close()
//
//	r, err := recordfile.NewFilteredReader(path, recordfile.Filter{
//	    DeviceHardwareID: "0012AB",
//	    ParsedKey:        "ot25",
//	})
//	for {
//	    entry, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # File Format
//
// Record files use the .otr extension. The otdecode CLI provides view,
// export and stats commands for them.
package recordfile
