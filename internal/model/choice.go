package model

import "strings"

// Choice is one of the three hand symbols
type Choice string

const (
	ChoiceRock     Choice = "rock"
	ChoicePaper    Choice = "paper"
	ChoiceScissors Choice = "scissors"
)

// beats maps each choice to the single choice it defeats
var beats = map[Choice]Choice{
	ChoiceRock:     ChoiceScissors,
	ChoiceScissors: ChoicePaper,
	ChoicePaper:    ChoiceRock,
}

// AllChoices returns the three symbols in a stable order
func AllChoices() []Choice {
	return []Choice{ChoiceRock, ChoicePaper, ChoiceScissors}
}

// ParseChoice normalizes and validates a choice name
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidChoice
	}
	return c, nil
}

// IsValid reports whether c is one of the three symbols
func (c Choice) IsValid() bool {
	_, ok := beats[c]
	return ok
}

// Beats reports whether c defeats other
func (c Choice) Beats(other Choice) bool {
	target, ok := beats[c]
	return ok && target == other
}
