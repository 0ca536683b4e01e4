package hands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerlens/pokerlens/internal/types"
)

const sampleLines = `{"played_at":"2026-01-10T20:15:00Z","stake":{"small_blind":0.5,"big_blind":1},"position":"BTN","hole_cards":["Ah","Kd"],"vpip":true,"pfr":true,"bets":2,"calls":1,"went_to_showdown":true,"won_at_showdown":true,"net_winnings":42.5}
{"played_at":"2026-01-10T20:16:30Z","stake":{"small_blind":0.5,"big_blind":1},"position":"sb","vpip":true,"three_bet":true,"raises":1,"net_winnings":-3}
{"played_at":"2026-01-10T20:17:45Z","stake":{"small_blind":0.5,"big_blind":1},"position":"BB","net_winnings":-1}
`

func TestParseValidLines(t *testing.T) {
	result, err := Parse(strings.NewReader(sampleLines))
	require.NoError(t, err)
	require.Len(t, result.Hands, 3)
	assert.Zero(t, result.Skipped)

	first := result.Hands[0]
	assert.Equal(t, types.PositionBTN, first.Position)
	assert.Equal(t, []string{"Ah", "Kd"}, first.HoleCards)
	assert.True(t, first.VPIP)
	assert.True(t, first.PFR)
	assert.True(t, first.WonAtShowdown)
	assert.InDelta(t, 42.5, first.NetWinnings, 1e-9)
	assert.InDelta(t, 42.5, first.BigBlinds(), 1e-9)
	assert.True(t, strings.HasPrefix(first.ID, "hand_"), "generated id missing prefix: %s", first.ID)

	// Position is normalized and a 3-bet implies VPIP and PFR.
	second := result.Hands[1]
	assert.Equal(t, types.PositionSB, second.Position)
	assert.True(t, second.VPIP)
	assert.True(t, second.PFR)
	assert.True(t, second.ThreeBet)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := `not json at all
{"played_at":"2026-01-10T20:15:00Z","stake":{"small_blind":0.5,"big_blind":1},"position":"CO","net_winnings":5}
{"position":"BTN"}
{"played_at":"2026-01-10T20:16:00Z","stake":{"small_blind":0.5,"big_blind":1},"position":"dealer","net_winnings":5}

# a comment line
`
	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, result.Hands, 1)
	assert.Equal(t, 3, result.Skipped)
}

func TestParseSkipsOversizedLine(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"played_at":"2026-01-10T20:15:00Z","stake":{"small_blind":0.5,"big_blind":1},"position":"CO","net_winnings":5}` + "\n")
	// A record over the line limit is malformed by definition; it must be
	// counted and skipped without failing the rest of the file.
	b.WriteString(`{"played_at":"2026-01-10T20:15:30Z","hole_cards":["` + strings.Repeat("x", maxLineBytes+1) + `"]}` + "\n")
	b.WriteString(`{"played_at":"2026-01-10T20:16:00Z","stake":{"small_blind":0.5,"big_blind":1},"position":"BTN","net_winnings":-2}` + "\n")

	result, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Len(t, result.Hands, 2)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, types.PositionCO, result.Hands[0].Position)
	assert.Equal(t, types.PositionBTN, result.Hands[1].Position)
}

func TestParseLastLineWithoutNewline(t *testing.T) {
	input := strings.TrimSuffix(sampleLines, "\n")
	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, result.Hands, 3)
}

func TestParseFileRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hands.jsonl")
	require.NoError(t, os.WriteFile(path, []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02, 0x03}, 0o644))

	_, err := ParseFile(path)
	assert.Error(t, err)
}

func TestParseFileReadsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hands.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLines), 0o644))

	result, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, result.Hands, 3)
}
