package hands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pokerlens/pokerlens/internal/id"
	"github.com/pokerlens/pokerlens/internal/types"
)

// maxLineBytes bounds a single hand record; anything larger is malformed.
const maxLineBytes = 1 << 20

// ParseResult reports the outcome of parsing one hand-history file.
type ParseResult struct {
	Hands   []*types.Hand
	Skipped int
}

// record is the raw JSON-lines hand format produced by the tracker export.
type record struct {
	ID           string      `json:"id"`
	PlayedAt     time.Time   `json:"played_at"`
	Stake        types.Stake `json:"stake"`
	Position     string      `json:"position"`
	HoleCards    []string    `json:"hole_cards"`
	VPIP         bool        `json:"vpip"`
	PFR          bool        `json:"pfr"`
	ThreeBet     bool        `json:"three_bet"`
	Bets         int         `json:"bets"`
	Raises       int         `json:"raises"`
	Calls        int         `json:"calls"`
	Showdown     bool        `json:"went_to_showdown"`
	WonShowdown  bool        `json:"won_at_showdown"`
	NetWinnings  float64     `json:"net_winnings"`
	PlayersDealt int         `json:"players_dealt"`
}

// ParseFile parses a JSON-lines hand-history file. Binary files are rejected
// outright; individual malformed lines are skipped and counted.
func ParseFile(path string) (*ParseResult, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	if !isTextual(mt) {
		return nil, fmt.Errorf("%s is not a text hand history (%s)", path, mt.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse parses JSON-lines hand records from r. A line over maxLineBytes is
// malformed by definition, so it is skipped and counted like any other bad
// record instead of failing the file.
func Parse(r io.Reader) (*ParseResult, error) {
	result := &ParseResult{}

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, tooLong, err := readLine(reader)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read hand history: %w", err)
		}

		switch {
		case tooLong:
			result.Skipped++
		default:
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				hand, perr := parseLine(trimmed)
				if perr != nil {
					result.Skipped++
				} else {
					result.Hands = append(result.Hands, hand)
				}
			}
		}

		if err == io.EOF {
			return result, nil
		}
	}
}

// readLine reads up to the next newline. Once a line exceeds maxLineBytes the
// accumulated bytes are dropped and the remainder of the line is drained, so
// one runaway record costs bounded memory.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				tooLong = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return strings.TrimSuffix(string(buf), "\n"), tooLong, err
	}
}

func parseLine(line string) (*types.Hand, error) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, err
	}

	if rec.PlayedAt.IsZero() {
		return nil, fmt.Errorf("missing played_at")
	}
	if rec.Stake.BigBlind <= 0 {
		return nil, fmt.Errorf("missing big blind")
	}
	position := types.Position(strings.ToUpper(rec.Position))
	if !position.IsValid() {
		return nil, fmt.Errorf("unknown position %q", rec.Position)
	}

	handID := rec.ID
	if handID == "" {
		handID = id.NewHandID()
	}

	return &types.Hand{
		ID:             handID,
		PlayedAt:       rec.PlayedAt,
		Stake:          rec.Stake,
		Position:       position,
		HoleCards:      rec.HoleCards,
		VPIP:           rec.VPIP || rec.PFR || rec.ThreeBet,
		PFR:            rec.PFR || rec.ThreeBet,
		ThreeBet:       rec.ThreeBet,
		Bets:           rec.Bets,
		Raises:         rec.Raises,
		Calls:          rec.Calls,
		WentToShowdown: rec.Showdown,
		WonAtShowdown:  rec.Showdown && rec.WonShowdown,
		NetWinnings:    rec.NetWinnings,
		PlayersDealt:   rec.PlayersDealt,
	}, nil
}

func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("application/json") {
			return true
		}
	}
	return false
}
