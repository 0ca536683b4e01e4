// Package wsclient implements the dashboard's WebSocket subscription client.
//
// The client owns at most one live transport connection and moves through a
// three-state machine (disconnected, connecting, connected). Consumers
// subscribe to message types (statistics_update, progress, file_monitoring,
// analysis_update) and receive the raw data payload of each matching
// envelope; dispatch happens only while connected.
//
// Unexpected closure triggers fixed-interval redials up to a consecutive
// attempt cap; an explicit Disconnect suppresses the policy. Exhausting the
// cap is not an error: the client simply stays disconnected and reports it
// through State.
package wsclient
