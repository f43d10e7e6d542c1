// Package review holds the per-deck, per-direction review state: one
// record per item plus the day-scoped bookkeeping of what was already
// shown today.
package review

import (
	"time"

	"github.com/polingu/polingu/internal/srs"
)

// Record wraps an item's memory state with its identifier and the log
// entry of the most recent rating, if any.
type Record struct {
	Key  string
	Card srs.MemoryState
	Log  *srs.ReviewLog
}

// Store is the deck-and-direction-scoped review state. The day-scoped
// sets are only meaningful while LastReviewDate equals today; Normalize
// resets them on date rollover. Day boundaries use local device time.
type Store struct {
	Records        map[string]Record
	ReviewedToday  map[string]struct{}
	NewToday       map[string]struct{}
	LastReviewDate string
}

// DateString formats t as the date-only "YYYY-MM-DD" value used for
// day tracking.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// NewStore returns an empty store anchored to the day containing now.
func NewStore(now time.Time) *Store {
	return &Store{
		Records:        make(map[string]Record),
		ReviewedToday:  make(map[string]struct{}),
		NewToday:       make(map[string]struct{}),
		LastReviewDate: DateString(now),
	}
}

// Normalize resets the day-scoped sets if the store was last touched on
// an earlier calendar day. Every reader and writer must call this
// before trusting ReviewedToday or NewToday, otherwise stale markers
// would suppress legitimately due items indefinitely.
func (s *Store) Normalize(now time.Time) {
	today := DateString(now)
	if s.LastReviewDate == today {
		return
	}
	s.ReviewedToday = make(map[string]struct{})
	s.NewToday = make(map[string]struct{})
	s.LastReviewDate = today
}

// GetOrCreate returns the stored record for key, or synthesizes a fresh
// New-state record without persisting it. A record only enters the
// store once a rating is committed via Put.
func (s *Store) GetOrCreate(key string, engine *srs.Engine, now time.Time) Record {
	if rec, ok := s.Records[key]; ok {
		return rec
	}
	return Record{
		Key:  key,
		Card: engine.Empty(now),
	}
}

// Put stores the record under its own key.
func (s *Store) Put(rec Record) {
	s.Records[rec.Key] = rec
}

// MarkReviewed records that the item was shown as a review today.
func (s *Store) MarkReviewed(key string, now time.Time) {
	s.Normalize(now)
	s.ReviewedToday[key] = struct{}{}
}

// MarkNew records that the item was introduced as a new card today,
// consuming one slot of the daily quota.
func (s *Store) MarkNew(key string, now time.Time) {
	s.Normalize(now)
	s.NewToday[key] = struct{}{}
}

// WasReviewedToday reports whether the item was already shown as a
// review today.
func (s *Store) WasReviewedToday(key string) bool {
	_, ok := s.ReviewedToday[key]
	return ok
}

// WasNewToday reports whether the item was already introduced today.
func (s *Store) WasNewToday(key string) bool {
	_, ok := s.NewToday[key]
	return ok
}
