package domain

import "strconv"

// PartOfSpeech classifies a vocabulary word.
type PartOfSpeech string

// Parts of speech recognized by the vocabulary deck.
var PartsOfSpeech = []PartOfSpeech{
	"noun",
	"verb",
	"adjective",
	"adverb",
	"pronoun",
	"preposition",
	"conjunction",
	"particle",
	"numeral",
	"proper noun",
}

// VocabularyWord is a single Polish/English word pair. Custom words are
// user-authored and compete for session slots ahead of system words.
type VocabularyWord struct {
	ID           int          `json:"id"`
	Polish       string       `json:"polish"`
	English      string       `json:"english"`
	PartOfSpeech PartOfSpeech `json:"partOfSpeech"`
	Gender       string       `json:"gender,omitempty"` // nouns only
	Notes        string       `json:"notes,omitempty"`
	IsCustom     bool         `json:"isCustom,omitempty"`
}

// Key returns the word's stable review-store identifier.
func (w VocabularyWord) Key() string { return strconv.Itoa(w.ID) }

// Custom reports whether the word is user-authored.
func (w VocabularyWord) Custom() bool { return w.IsCustom }
