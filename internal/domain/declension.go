package domain

import "strconv"

// Case is a Polish grammatical case.
type Case string

// Cases in the textbook order.
var Cases = []Case{
	"Nominative",
	"Genitive",
	"Dative",
	"Accusative",
	"Instrumental",
	"Locative",
	"Vocative",
}

// Gender groups declension patterns. Pronoun is treated as its own
// group since pronouns decline on their own tables.
type Gender string

// Genders lists the declension pattern groups.
var Genders = []Gender{"Masculine", "Feminine", "Neuter", "Pronoun"}

// GrammaticalNumber is singular or plural.
type GrammaticalNumber string

// Numbers lists the grammatical numbers.
var Numbers = []GrammaticalNumber{"Singular", "Plural"}

// DeclensionCard asks for one declined form of a noun or pronoun.
type DeclensionCard struct {
	ID       int               `json:"id"`
	Prompt   string            `json:"prompt"`
	Answer   string            `json:"answer"`
	Case     Case              `json:"case"`
	Gender   Gender            `json:"gender"`
	Number   GrammaticalNumber `json:"number"`
	IsCustom bool              `json:"isCustom,omitempty"`
}

// Key returns the card's stable review-store identifier.
func (c DeclensionCard) Key() string { return strconv.Itoa(c.ID) }

// Custom reports whether the card is user-authored.
func (c DeclensionCard) Custom() bool { return c.IsCustom }

// DeclensionFilters constrains a session by case, gender and number.
// Each facet is either a concrete value or FilterAll.
type DeclensionFilters struct {
	Case   string `json:"case"`
	Gender string `json:"gender"`
	Number string `json:"number"`
}

// NoDeclensionFilters matches every card.
func NoDeclensionFilters() DeclensionFilters {
	return DeclensionFilters{Case: FilterAll, Gender: FilterAll, Number: FilterAll}
}

// Matches reports whether the card satisfies every constrained facet.
// Facet values outside the known enums fail closed: a stale filter
// yields an empty selection rather than a crash or a too-wide one.
func (f DeclensionFilters) Matches(c DeclensionCard) bool {
	if f.Case != FilterAll {
		if !validCase(f.Case) || string(c.Case) != f.Case {
			return false
		}
	}
	if f.Gender != FilterAll {
		if !validGender(f.Gender) || string(c.Gender) != f.Gender {
			return false
		}
	}
	if f.Number != FilterAll {
		if !validNumber(f.Number) || string(c.Number) != f.Number {
			return false
		}
	}
	return true
}

func validCase(v string) bool {
	for _, c := range Cases {
		if string(c) == v {
			return true
		}
	}
	return false
}

func validGender(v string) bool {
	for _, g := range Genders {
		if string(g) == v {
			return true
		}
	}
	return false
}

func validNumber(v string) bool {
	for _, n := range Numbers {
		if string(n) == v {
			return true
		}
	}
	return false
}
