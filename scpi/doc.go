// Package scpi implements the transport and session layer shared by the
// bench-instrument drivers: a blocking line-oriented text transport with a
// per-call timeout, the session open/identify handshake, and the
// write-then-confirm command completion protocol that guarantees a
// configuration command has taken effect on the instrument before the
// next one is issued.
//
// Instruments speak an SCPI-like protocol: ASCII commands terminated by
// newline, queries ending in '?', responses as ASCII lines. A Session
// exclusively owns one Transport for its lifetime; it is not safe for
// concurrent use, callers sharing a session across goroutines must
// serialize access (see package bench).
package scpi
