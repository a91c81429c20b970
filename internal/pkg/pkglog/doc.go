// Package pkglog contains the logging facility used across the application.
//
// A Facility owns the severity level and a set of sinks. Records produced by
// slog (Facility.Logger) and by std-log loggers routed through the Bridge are
// enriched with the request correlation ID bound to the context and handed to
// every sink:
//   - ConsoleSink writes human-readable or JSON lines to a stream.
//   - FileSink appends to a file that rotates on size or at a daily time of
//     day, with compressed archives removed after the retention period.
//   - ForwardSink ships JSON lines to the process that owns the file.
//
// In a multi-process server only the supervisor owns the file. It hands a
// SinkDescriptor to each worker, which adopts it and forwards records back
// over a pipe read by Facility.Ingest.
package pkglog
