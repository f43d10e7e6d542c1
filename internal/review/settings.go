package review

// DefaultNewCardsPerDay is the daily quota applied when a deck has no
// stored settings.
const DefaultNewCardsPerDay = 10

// Settings is the per-deck, per-direction configuration. Each review
// direction keeps its own settings and store since recall is
// directionally asymmetric.
type Settings struct {
	NewCardsPerDay int    `json:"newCardsPerDay" validate:"min=1"`
	Direction      string `json:"direction,omitempty"`
}

// DefaultSettings returns the settings used before a user customizes a
// deck.
func DefaultSettings(direction string) Settings {
	return Settings{
		NewCardsPerDay: DefaultNewCardsPerDay,
		Direction:      direction,
	}
}
