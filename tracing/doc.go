// Package tracing is a thin wrapper around OpenTelemetry tracing used by the
// scheduler and memory manager facades. Instrumentation is kept in a separate
// package so that applications which do not require tracing can exclude it
// from their build.
package tracing
