package model

// OutcomeKind says whether a round had a winner
type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeLose OutcomeKind = "lose" // Only used for single-player results
	OutcomeTie  OutcomeKind = "tie"
)

// RoundOutcome is the result of one resolved round
type RoundOutcome struct {
	WinnerID   *ConnectionID `json:"winner"` // nil on a tie
	Kind       OutcomeKind   `json:"result"`
	Message    string        `json:"message"`
	WinnerName string        `json:"winnerName,omitempty"`
}

// IsTie reports whether nobody won the round
func (o RoundOutcome) IsTie() bool {
	return o.Kind == OutcomeTie
}

// Play is one participant's choice for a round
type Play struct {
	ConnectionID ConnectionID
	Name         string
	Choice       Choice
}
