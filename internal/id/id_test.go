package id

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedIDs(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"hand", NewHandID, "hand_"},
		{"session", NewSessionID, "sess_"},
		{"task", NewTaskID, "task_"},
		{"request", NewRequestID, "req_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			assert.True(t, strings.HasPrefix(id, tt.prefix), "id %q missing prefix %q", id, tt.prefix)
			// 26 chars of ULID after the prefix
			assert.Len(t, id, len(tt.prefix)+26)
		})
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewHandID()
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewTaskID()
	after := time.Now().Add(time.Second)

	ts, err := Timestamp(id)
	require.NoError(t, err)
	assert.True(t, ts.After(before) && ts.Before(after), "timestamp %v outside [%v, %v]", ts, before, after)
}

func TestTimestampRejectsGarbage(t *testing.T) {
	_, err := Timestamp("hand_not-a-ulid")
	assert.Error(t, err)
}
