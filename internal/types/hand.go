package types

import "time"

// Position identifies a seat relative to the button.
type Position string

const (
	PositionUTG Position = "UTG"
	PositionMP  Position = "MP"
	PositionCO  Position = "CO"
	PositionBTN Position = "BTN"
	PositionSB  Position = "SB"
	PositionBB  Position = "BB"
)

// ValidPositions lists every recognized position.
var ValidPositions = []Position{
	PositionUTG, PositionMP, PositionCO, PositionBTN, PositionSB, PositionBB,
}

// IsValid reports whether the position is one of the recognized seats.
func (p Position) IsValid() bool {
	for _, v := range ValidPositions {
		if p == v {
			return true
		}
	}
	return false
}

// Stake describes the blind structure a hand was played at.
type Stake struct {
	SmallBlind float64 `json:"small_blind"`
	BigBlind   float64 `json:"big_blind"`
}

// Hand is a single imported hand history record for the hero.
type Hand struct {
	ID       string    `json:"id"`
	PlayedAt time.Time `json:"played_at"`
	Stake    Stake     `json:"stake"`
	Position Position  `json:"position"`

	HoleCards []string `json:"hole_cards,omitempty"`

	// Preflop action flags
	VPIP     bool `json:"vpip"`
	PFR      bool `json:"pfr"`
	ThreeBet bool `json:"three_bet"`

	// Postflop aggression counts across all streets
	Bets   int `json:"bets"`
	Raises int `json:"raises"`
	Calls  int `json:"calls"`

	WentToShowdown bool `json:"went_to_showdown"`
	WonAtShowdown  bool `json:"won_at_showdown"`

	// NetWinnings is the hero's result for the hand in chips.
	NetWinnings float64 `json:"net_winnings"`

	PlayersDealt int `json:"players_dealt,omitempty"`
}

// BigBlinds returns the hand result normalized to big blinds.
// Hands recorded without a big blind contribute zero rather than NaN.
func (h *Hand) BigBlinds() float64 {
	if h.Stake.BigBlind <= 0 {
		return 0
	}
	return h.NetWinnings / h.Stake.BigBlind
}

// Filter narrows a hand query. Zero values mean "no constraint".
type Filter struct {
	BigBlind  float64    `json:"big_blind,omitempty"`
	Positions []Position `json:"positions,omitempty"`
	From      time.Time  `json:"from,omitempty"`
	To        time.Time  `json:"to,omitempty"`
}

// Matches reports whether the hand passes every set constraint.
func (f Filter) Matches(h *Hand) bool {
	if f.BigBlind > 0 && h.Stake.BigBlind != f.BigBlind {
		return false
	}
	if len(f.Positions) > 0 {
		found := false
		for _, p := range f.Positions {
			if h.Position == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && h.PlayedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && h.PlayedAt.After(f.To) {
		return false
	}
	return true
}
