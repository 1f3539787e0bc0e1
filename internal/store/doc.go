// Package store provides durable telemetry storage for spacesim runs.
//
// A run is one clock session of one vehicle. While it runs, a Recorder
// attached as a clock observer writes one row per engine and per tank for
// every firing, plus one row per caught fault. Reads return rows ordered by
// seq, then name, so the same run always reads back identically.
//
// The store is SQLite (github.com/mattn/go-sqlite3) in WAL mode. Open is
// idempotent and applies the embedded schema and migrations.
//
// The store is outside the simulation core: the clock, engines and tanks
// never depend on it.
package store
