package types

import "encoding/json"

// Server-pushed message types consumed by the dashboard.
const (
	MsgStatisticsUpdate = "statistics_update"
	MsgProgress         = "progress"
	MsgFileMonitoring   = "file_monitoring"
	MsgAnalysisUpdate   = "analysis_update"
	MsgSystem           = "system"
	MsgPong             = "pong"
)

// Envelope is the wire format for every WebSocket message.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ProgressUpdate reports import task progress (0-100).
type ProgressUpdate struct {
	TaskID   string `json:"task_id"`
	File     string `json:"file"`
	Progress int    `json:"progress"`
	Stage    string `json:"stage"`
}

// FileEvent reports hand-history directory activity.
type FileEvent struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}
