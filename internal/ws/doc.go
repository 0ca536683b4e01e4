// Package ws provides the server side of the dashboard's real-time feed.
//
// Every message is a JSON envelope {type, data, timestamp}. The hub owns the
// set of connected clients and fans each published envelope out to all of
// them; slow clients lose messages instead of blocking the pipeline.
//
// Message types (server -> client):
//   - statistics_update: recomputed aggregate statistics report
//   - progress: import task progress (0-100)
//   - file_monitoring: hand-history directory activity
//   - analysis_update: coaching commentary for the latest report
//   - system: connection welcome
//   - pong: keep-alive reply
//
// Message types (client -> server):
//   - ping: keep-alive
package ws
