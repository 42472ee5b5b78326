// Package cloud implements the Livox point-cloud codec and the
// bird's-eye-view (BEV) transform pipeline.
//
// Responsibilities: decoding flat row-major point buffers into records,
// the vertical-window BEV projection, re-encoding projected records with
// their field-layout descriptors, and per-frame summary statistics.
//
// Every operation in this package is a synchronous pure transform over one
// frame at a time. No cross-frame state lives here; frame assembly and
// transport belong to internal/feed and internal/publish.
package cloud
