// Package state provides a lightweight FSM/session table for Telegram bots.
// Sessions are typed payloads keyed by a caller-chosen string, so each flow
// carries only the fields it needs. The package is domain-agnostic.
package state
