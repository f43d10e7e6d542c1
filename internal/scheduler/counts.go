package scheduler

import (
	"fmt"

	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/srs"
)

// DueCount replays the SessionCards classification but only counts.
// For any given inputs it equals len(Review)+len(New) of SessionCards;
// the badge in the UI must never promise cards the session won't show.
func (p *Planner[T]) DueCount(items []T, store *review.Store, match MatchFunc[T], settings review.Settings) (int, error) {
	now := p.now()
	remainingQuota := settings.NewCardsPerDay - len(store.NewToday)

	dueReviews := 0
	newCards := 0
	for _, item := range items {
		rec := store.GetOrCreate(item.Key(), p.engine, now)
		if err := p.engine.Validate(rec.Card); err != nil {
			return 0, fmt.Errorf("item %s: %w", item.Key(), err)
		}

		switch rec.Card.State {
		case srs.StateNew:
			if matches(match, item) &&
				!store.WasNewToday(item.Key()) &&
				newCards < remainingQuota {
				newCards++
			}
		case srs.StateLearning, srs.StateRelearning:
			if !store.WasReviewedToday(item.Key()) {
				dueReviews++
			}
		default:
			if p.engine.IsDue(rec.Card, now) && !store.WasReviewedToday(item.Key()) {
				dueReviews++
			}
		}
	}
	return dueReviews + newCards, nil
}

// Progress summarizes a deck for the stats page.
type Progress struct {
	Total    int `json:"total"`
	Learned  int `json:"learned"`  // reviewed at least once
	Mastered int `json:"mastered"` // graduated to the long-term Review state
	Due      int `json:"due"`      // what SessionCards would show now
}

// ProgressStats computes the deck summary shown on the progress page.
func (p *Planner[T]) ProgressStats(items []T, store *review.Store, match MatchFunc[T], settings review.Settings) (Progress, error) {
	now := p.now()

	stats := Progress{Total: len(items)}
	for _, item := range items {
		rec := store.GetOrCreate(item.Key(), p.engine, now)
		if rec.Card.State != srs.StateNew {
			stats.Learned++
		}
		if rec.Card.State == srs.StateReview {
			stats.Mastered++
		}
	}

	due, err := p.DueCount(items, store, match, settings)
	if err != nil {
		return Progress{}, err
	}
	stats.Due = due
	return stats, nil
}
