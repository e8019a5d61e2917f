package bot

import (
	"log/slog"

	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/rules"
)

const (
	PlayerWinsMessage = "You win!"
	BotWinsMessage    = "AI wins!"
)

// Service plays single rounds against a Strategy. It touches no room state.
type Service struct {
	strategy Strategy
	logger   *slog.Logger
}

// NewService creates a new bot Service
func NewService(strategy Strategy, logger *slog.Logger) *Service {
	return &Service{
		strategy: strategy,
		logger:   logger.With(slog.String("component", "bot")),
	}
}

// PlayAgainst resolves one round of choice against the bot, reported from
// the player's point of view
func (s *Service) PlayAgainst(choice model.Choice) model.AIResultPayload {
	botChoice := s.strategy.Choose()
	result := rules.Compare(choice, botChoice)

	message := rules.TieMessage
	switch result {
	case model.OutcomeWin:
		message = PlayerWinsMessage
	case model.OutcomeLose:
		message = BotWinsMessage
	}

	s.logger.Debug("single-player round",
		slog.String("player_choice", string(choice)),
		slog.String("bot_choice", string(botChoice)),
		slog.String("result", string(result)))

	return model.AIResultPayload{
		PlayerChoice: choice,
		AIChoice:     botChoice,
		Result:       result,
		Message:      message,
	}
}
