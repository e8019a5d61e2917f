package bot

import "github.com/rajachanda/rps/internal/model"

// Strategy defines how the single-player opponent picks its symbol
type Strategy interface {
	Choose() model.Choice
}
