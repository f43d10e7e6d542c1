package domain

// Level is a CEFR proficiency level.
type Level string

// Levels in ascending order.
var Levels = []Level{"A1", "A2", "B1", "B2", "C1", "C2"}

// Sentence is an example sentence reviewed as a whole.
type Sentence struct {
	ID       string   `json:"id"`
	Polish   string   `json:"polish"`
	English  string   `json:"english"`
	Level    Level    `json:"level"`
	Tags     []string `json:"tags,omitempty"`
	IsCustom bool     `json:"isCustom,omitempty"`
}

// Key returns the sentence's stable review-store identifier.
func (s Sentence) Key() string { return s.ID }

// Custom reports whether the sentence is user-authored.
func (s Sentence) Custom() bool { return s.IsCustom }

// SentenceFilters selects sentences whose level is in the chosen set.
// An empty selection matches nothing, mirroring the level picker in the
// UI where deselecting every level hides the deck.
type SentenceFilters struct {
	Levels []Level `json:"levels"`
}

// AllLevels selects every CEFR level.
func AllLevels() SentenceFilters {
	return SentenceFilters{Levels: Levels}
}

// Matches reports whether the sentence's level is selected.
func (f SentenceFilters) Matches(s Sentence) bool {
	for _, level := range f.Levels {
		if level == s.Level {
			return true
		}
	}
	return false
}
