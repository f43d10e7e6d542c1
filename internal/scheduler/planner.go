// Package scheduler assembles review sessions. One generic planner
// covers all four content decks; each deck instantiates it with its
// own item type and filter predicate.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/srs"
)

// Item is what the planner needs to know about a reviewable thing: a
// stable review-store key and whether the user authored it. Custom
// items win ties against system items for session slots.
type Item interface {
	Key() string
	Custom() bool
}

// Card pairs an item with its review record for presentation. It is
// ephemeral and never persisted.
type Card[T Item] struct {
	Item   T
	Record review.Record
	IsNew  bool
}

// Session is the output of SessionCards. The caller decides how to
// interleave the two lists.
type Session[T Item] struct {
	Review []Card[T]
	New    []Card[T]
}

// MatchFunc decides whether an item qualifies under the user's facet
// filters. A nil MatchFunc matches everything.
type MatchFunc[T Item] func(T) bool

// Planner builds sessions for one item type. It is stateless apart
// from the injected engine and performs pure reads: stores handed to
// its methods are never mutated.
type Planner[T Item] struct {
	engine *srs.Engine
	now    func() time.Time
}

// New returns a planner backed by the given engine.
func New[T Item](engine *srs.Engine) *Planner[T] {
	return &Planner[T]{engine: engine, now: time.Now}
}

// NewAt is like New but with an injectable clock, for tests.
func NewAt[T Item](engine *srs.Engine, now func() time.Time) *Planner[T] {
	return &Planner[T]{engine: engine, now: now}
}

// SessionCards partitions the catalog into the due-for-review set and
// the new-today set.
//
// New items are gated by the filters and the remaining daily quota,
// never by due-ness. Learning and Relearning items are surfaced
// regardless of their due timestamp. Review items are due-gated.
// Filters apply to the New branch only: an item the user is already
// studying keeps appearing even after the filters change. Review cards
// come back sorted by due date, custom items ahead of system items.
func (p *Planner[T]) SessionCards(items []T, store *review.Store, match MatchFunc[T], settings review.Settings) (Session[T], error) {
	now := p.now()
	remainingQuota := settings.NewCardsPerDay - len(store.NewToday)

	var session Session[T]
	for _, item := range items {
		rec := store.GetOrCreate(item.Key(), p.engine, now)
		if err := p.engine.Validate(rec.Card); err != nil {
			return Session[T]{}, fmt.Errorf("item %s: %w", item.Key(), err)
		}

		switch rec.Card.State {
		case srs.StateNew:
			if matches(match, item) &&
				!store.WasNewToday(item.Key()) &&
				len(session.New) < remainingQuota {
				session.New = append(session.New, Card[T]{Item: item, Record: rec, IsNew: true})
			}
		case srs.StateLearning, srs.StateRelearning:
			if !store.WasReviewedToday(item.Key()) {
				session.Review = append(session.Review, Card[T]{Item: item, Record: rec})
			}
		default:
			if p.engine.IsDue(rec.Card, now) && !store.WasReviewedToday(item.Key()) {
				session.Review = append(session.Review, Card[T]{Item: item, Record: rec})
			}
		}
	}

	sortByDue(session.Review)
	return session, nil
}

// PracticeAhead selects up to count Review-state items that are either
// not yet due or already handled today, letting the user practice
// beyond the mandatory due set. Soonest-due first, custom items ahead
// of system items. New and Learning items are excluded; the main
// session already covers them.
func (p *Planner[T]) PracticeAhead(items []T, store *review.Store, match MatchFunc[T], count int) ([]Card[T], error) {
	now := p.now()

	var cards []Card[T]
	for _, item := range items {
		if !matches(match, item) {
			continue
		}
		rec := store.GetOrCreate(item.Key(), p.engine, now)
		if err := p.engine.Validate(rec.Card); err != nil {
			return nil, fmt.Errorf("item %s: %w", item.Key(), err)
		}

		state := rec.Card.State
		if state != srs.StateReview {
			continue
		}
		if !p.engine.IsDue(rec.Card, now) || store.WasReviewedToday(item.Key()) {
			cards = append(cards, Card[T]{Item: item, Record: rec})
		}
	}

	sortByDue(cards)
	if len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}

// ExtraNew pulls up to count unseen items beyond the daily quota, in
// catalog order: the catalog already lists custom items first, so no
// sorting is applied.
func (p *Planner[T]) ExtraNew(items []T, store *review.Store, match MatchFunc[T], count int) []Card[T] {
	now := p.now()

	var cards []Card[T]
	for _, item := range items {
		if len(cards) >= count {
			break
		}
		if !matches(match, item) {
			continue
		}
		rec := store.GetOrCreate(item.Key(), p.engine, now)
		if rec.Card.State == srs.StateNew && !store.WasNewToday(item.Key()) {
			cards = append(cards, Card[T]{Item: item, Record: rec, IsNew: true})
		}
	}
	return cards
}

// Rate applies a grade to a record, producing the updated record with
// the item identity preserved and the log entry attached. The caller
// persists the result and updates the day bookkeeping; Rate itself
// touches no store.
func Rate(engine *srs.Engine, rec review.Record, grade srs.Rating, now time.Time) review.Record {
	card, log := engine.Rate(rec.Card, grade, now)
	return review.Record{
		Key:  rec.Key,
		Card: card,
		Log:  &log,
	}
}

func matches[T Item](match MatchFunc[T], item T) bool {
	return match == nil || match(item)
}

// sortByDue orders cards by due date ascending within each tier, the
// custom tier ahead of the system tier.
func sortByDue[T Item](cards []Card[T]) {
	sort.SliceStable(cards, func(i, j int) bool {
		ci, cj := cards[i], cards[j]
		if ci.Item.Custom() != cj.Item.Custom() {
			return ci.Item.Custom()
		}
		return ci.Record.Card.Due.Before(cj.Record.Card.Due)
	})
}
