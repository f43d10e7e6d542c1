// Package domain defines the four reviewable content types and the
// facet filters a user can apply when assembling a session.
package domain

// Deck identifies one of the four content pipelines.
type Deck string

const (
	DeckDeclension  Deck = "declension"
	DeckVocabulary  Deck = "vocabulary"
	DeckSentences   Deck = "sentences"
	DeckConjugation Deck = "conjugation"
)

// Decks lists all decks in display order.
var Decks = []Deck{DeckDeclension, DeckVocabulary, DeckSentences, DeckConjugation}

// Valid reports whether d names a known deck.
func (d Deck) Valid() bool {
	switch d {
	case DeckDeclension, DeckVocabulary, DeckSentences, DeckConjugation:
		return true
	}
	return false
}

// Direction is a review direction. Each direction keeps an independent
// review store and settings.
type Direction string

const (
	PlToEn Direction = "pl-to-en"
	EnToPl Direction = "en-to-pl"
)

// Directions lists the supported review directions.
var Directions = []Direction{PlToEn, EnToPl}

// Valid reports whether dir names a known direction.
func (dir Direction) Valid() bool {
	return dir == PlToEn || dir == EnToPl
}

// FilterAll is the sentinel facet value meaning "unconstrained".
const FilterAll = "All"
