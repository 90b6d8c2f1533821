// Package simetry defines the simulation-agnostic telemetry contract: a Source
// produces Moments for one simulation session until the session ends.
//
// Backends (such as the generic HTTP client in pkg/generichttp) implement Source;
// consumers only ever see Moments and ErrSessionEnded.
package simetry
