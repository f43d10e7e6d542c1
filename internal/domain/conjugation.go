package domain

import "fmt"

// Aspect is the Polish verbal aspect.
type Aspect string

// Aspects lists the verbal aspects.
var Aspects = []Aspect{"imperfective", "perfective"}

// VerbClass is the conjugation class, named by the infinitive ending
// pattern the verb follows.
type VerbClass string

// VerbClasses lists the conjugation classes.
var VerbClasses = []VerbClass{"-ać", "-eć", "-ić", "-ować", "irregular"}

// Tense identifies a conjugation table of a verb.
type Tense string

// Tenses in drill order. Perfective verbs have no present tense; their
// "future" table is the simple future.
var Tenses = []Tense{"present", "past", "future"}

// Person identifies a row of a conjugation table.
type Person string

// Persons in table order.
var Persons = []Person{"ja", "ty", "on/ona/ono", "my", "wy", "oni/one"}

// Verb is a catalog entry holding full conjugation tables. Verbs are
// not reviewed directly; each drillable form is its own scheduled item.
type Verb struct {
	ID           int                         `json:"id"`
	Infinitive   string                      `json:"infinitive"`
	English      string                      `json:"english"`
	Aspect       Aspect                      `json:"aspect"`
	Class        VerbClass                   `json:"class"`
	Conjugations map[Tense]map[Person]string `json:"conjugations"`
	IsCustom     bool                        `json:"isCustom,omitempty"`
}

// DrillableForm is one conjugated form of a verb, the unit the
// conjugation deck schedules. Verb-level facets are copied onto the
// form so filters can match without a catalog lookup.
type DrillableForm struct {
	VerbID     int       `json:"verbId"`
	Infinitive string    `json:"infinitive"`
	English    string    `json:"english"`
	Aspect     Aspect    `json:"aspect"`
	Class      VerbClass `json:"class"`
	Tense      Tense     `json:"tense"`
	Person     Person    `json:"person"`
	Form       string    `json:"form"`
	IsCustom   bool      `json:"isCustom,omitempty"`
}

// Key returns the composite form key combining verb id, tense and
// person. It is stable across catalog edits to other forms.
func (f DrillableForm) Key() string {
	return fmt.Sprintf("%d:%s:%s", f.VerbID, f.Tense, f.Person)
}

// Custom reports whether the owning verb is user-authored.
func (f DrillableForm) Custom() bool { return f.IsCustom }

// DrillableForms expands a verb into its reviewable forms, in tense
// then person order. Missing tables and empty cells are skipped.
func DrillableForms(v Verb) []DrillableForm {
	var forms []DrillableForm
	for _, tense := range Tenses {
		table, ok := v.Conjugations[tense]
		if !ok {
			continue
		}
		for _, person := range Persons {
			form, ok := table[person]
			if !ok || form == "" {
				continue
			}
			forms = append(forms, DrillableForm{
				VerbID:     v.ID,
				Infinitive: v.Infinitive,
				English:    v.English,
				Aspect:     v.Aspect,
				Class:      v.Class,
				Tense:      tense,
				Person:     person,
				Form:       form,
				IsCustom:   v.IsCustom,
			})
		}
	}
	return forms
}

// ExpandVerbs expands a catalog of verbs into drillable forms,
// preserving catalog order.
func ExpandVerbs(verbs []Verb) []DrillableForm {
	var forms []DrillableForm
	for _, v := range verbs {
		forms = append(forms, DrillableForms(v)...)
	}
	return forms
}

// ConjugationFilters constrains a session by aspect, class and tense.
// Each facet is either a concrete value or FilterAll; unknown values
// fail closed.
type ConjugationFilters struct {
	Aspect string `json:"aspect"`
	Class  string `json:"class"`
	Tense  string `json:"tense"`
}

// NoConjugationFilters matches every form.
func NoConjugationFilters() ConjugationFilters {
	return ConjugationFilters{Aspect: FilterAll, Class: FilterAll, Tense: FilterAll}
}

// Matches reports whether the form satisfies every constrained facet.
func (f ConjugationFilters) Matches(form DrillableForm) bool {
	if f.Aspect != FilterAll {
		if !validAspect(f.Aspect) || string(form.Aspect) != f.Aspect {
			return false
		}
	}
	if f.Class != FilterAll {
		if !validClass(f.Class) || string(form.Class) != f.Class {
			return false
		}
	}
	if f.Tense != FilterAll {
		if !validTense(f.Tense) || string(form.Tense) != f.Tense {
			return false
		}
	}
	return true
}

func validAspect(v string) bool {
	for _, a := range Aspects {
		if string(a) == v {
			return true
		}
	}
	return false
}

func validClass(v string) bool {
	for _, c := range VerbClasses {
		if string(c) == v {
			return true
		}
	}
	return false
}

func validTense(v string) bool {
	for _, t := range Tenses {
		if string(t) == v {
			return true
		}
	}
	return false
}
