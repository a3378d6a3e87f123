// Package sink delivers decoded records to their destinations.
//
// A Sink receives one record at a time. Implementations cover console
// output via slog, CBOR record files, JSON lines, MQTT and fan-out to
// several sinks at once:
//
//	s := sink.NewMulti(
//	    sink.NewSlog(slog.Default()),
//	    sink.NewFile(w),
//	)
//	defer s.Close()
//
// Every Sink is safe for concurrent use.
package sink
