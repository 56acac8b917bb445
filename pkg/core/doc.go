// Package core defines the shared types used across LeapETL: the nullable
// Value scalar, the in-memory Dataset table, adapter and dialect
// configuration, pipeline error kinds, and run-history records.
//
// It has no dependencies on other leapetl packages so that adapters, the
// pipeline stages, and the state store can all import it freely.
package core
