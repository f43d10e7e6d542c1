package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/srs"
)

type testItem struct {
	key    string
	custom bool
}

func (i testItem) Key() string  { return i.key }
func (i testItem) Custom() bool { return i.custom }

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPlanner() *Planner[testItem] {
	return NewAt[testItem](srs.NewEngine(), func() time.Time { return testNow })
}

func items(n int) []testItem {
	out := make([]testItem, n)
	for i := range out {
		out[i] = testItem{key: fmt.Sprintf("item-%02d", i)}
	}
	return out
}

func putState(store *review.Store, key string, state srs.State, due time.Time) {
	store.Put(review.Record{
		Key: key,
		Card: srs.MemoryState{
			State:      state,
			Due:        due,
			Stability:  1,
			Difficulty: 5,
			Reps:       1,
			LastReview: due.Add(-24 * time.Hour),
		},
	})
}

func settings(quota int) review.Settings {
	return review.Settings{NewCardsPerDay: quota}
}

func TestSessionCards(t *testing.T) {
	t.Run("quota caps new cards", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)

		session, err := p.SessionCards(items(15), store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.New) != 10 {
			t.Errorf("expected 10 new cards, got %d", len(session.New))
		}
		if len(session.Review) != 0 {
			t.Errorf("expected no review cards, got %d", len(session.Review))
		}
		for _, c := range session.New {
			if !c.IsNew {
				t.Errorf("card %s should be flagged new", c.Item.Key())
			}
		}
	})

	t.Run("quota counts cards already introduced today", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		store.MarkNew("seen-1", testNow)
		store.MarkNew("seen-2", testNow)

		session, err := p.SessionCards(items(15), store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.New) != 8 {
			t.Errorf("expected 8 new cards after 2 consumed slots, got %d", len(session.New))
		}
	})

	t.Run("exhausted quota yields no new cards", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		for i := 0; i < 10; i++ {
			store.MarkNew(fmt.Sprintf("seen-%d", i), testNow)
		}

		session, err := p.SessionCards(items(5), store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.New) != 0 {
			t.Errorf("expected no new cards, got %d", len(session.New))
		}
	})

	t.Run("filters gate new cards only", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "studied", srs.StateReview, testNow.Add(-time.Hour))

		match := func(i testItem) bool { return i.key != "studied" && i.key != "fresh" }
		catalog := []testItem{{key: "studied"}, {key: "fresh"}, {key: "allowed"}}

		session, err := p.SessionCards(catalog, store, match, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.Review) != 1 || session.Review[0].Item.Key() != "studied" {
			t.Errorf("expected the filtered-out studied item to still surface for review, got %v", session.Review)
		}
		if len(session.New) != 1 || session.New[0].Item.Key() != "allowed" {
			t.Errorf("expected only the allowed item as new, got %v", session.New)
		}
	})

	t.Run("learning cards surface before their due time", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "learning", srs.StateLearning, testNow.Add(10*time.Minute))
		putState(store, "relearning", srs.StateRelearning, testNow.Add(10*time.Minute))

		session, err := p.SessionCards([]testItem{{key: "learning"}, {key: "relearning"}}, store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.Review) != 2 {
			t.Errorf("expected both learning-stage cards to surface, got %d", len(session.Review))
		}
	})

	t.Run("review cards are due-gated", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "due", srs.StateReview, testNow.Add(-time.Hour))
		putState(store, "not-due", srs.StateReview, testNow.Add(time.Hour))

		session, err := p.SessionCards([]testItem{{key: "due"}, {key: "not-due"}}, store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.Review) != 1 || session.Review[0].Item.Key() != "due" {
			t.Errorf("expected only the due card, got %v", session.Review)
		}
	})

	t.Run("reviewed today suppresses repeats", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "done", srs.StateReview, testNow.Add(-time.Hour))
		store.MarkReviewed("done", testNow)

		session, err := p.SessionCards([]testItem{{key: "done"}}, store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.Review) != 0 {
			t.Errorf("expected no review cards, got %d", len(session.Review))
		}
	})

	t.Run("review cards sorted by due with custom first", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "sys-early", srs.StateReview, testNow.Add(-3*time.Hour))
		putState(store, "sys-late", srs.StateReview, testNow.Add(-time.Hour))
		putState(store, "cust-late", srs.StateReview, testNow.Add(-2*time.Hour))

		catalog := []testItem{
			{key: "sys-late"},
			{key: "cust-late", custom: true},
			{key: "sys-early"},
		}
		session, err := p.SessionCards(catalog, store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}

		var got []string
		for _, c := range session.Review {
			got = append(got, c.Item.Key())
		}
		want := []string{"cust-late", "sys-early", "sys-late"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
	})

	t.Run("custom new cards win the last quota slot in catalog order", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)

		catalog := []testItem{{key: "custom", custom: true}, {key: "system"}}
		session, err := p.SessionCards(catalog, store, nil, settings(1))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.New) != 1 || session.New[0].Item.Key() != "custom" {
			t.Errorf("expected the custom card to take the single slot, got %v", session.New)
		}
	})

	t.Run("malformed state is surfaced", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		store.Put(review.Record{Key: "broken", Card: srs.MemoryState{State: srs.StateReview}})

		_, err := p.SessionCards([]testItem{{key: "broken"}}, store, nil, settings(10))
		if !errors.Is(err, srs.ErrMalformedState) {
			t.Errorf("expected ErrMalformedState, got %v", err)
		}
	})
}

func TestRate(t *testing.T) {
	engine := srs.NewEngine()
	p := NewAt[testItem](engine, func() time.Time { return testNow })
	store := review.NewStore(testNow)
	putState(store, "card", srs.StateReview, testNow.Add(-time.Hour))

	rec := store.GetOrCreate("card", engine, testNow)
	updated := Rate(engine, rec, srs.Good, testNow)

	t.Run("identity preserved", func(t *testing.T) {
		if updated.Key != "card" {
			t.Errorf("expected key to survive rating, got %q", updated.Key)
		}
		if updated.Log == nil {
			t.Error("expected a log entry on the updated record")
		}
	})

	t.Run("rated card leaves the session", func(t *testing.T) {
		store.Put(updated)
		store.MarkReviewed("card", testNow)

		session, err := p.SessionCards([]testItem{{key: "card"}}, store, nil, settings(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(session.Review)+len(session.New) != 0 {
			t.Errorf("expected the rated card to leave the session, got %d cards", len(session.Review)+len(session.New))
		}
	})
}

func TestPracticeAhead(t *testing.T) {
	t.Run("selects not-due and already-handled review cards", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "future", srs.StateReview, testNow.Add(48*time.Hour))
		putState(store, "handled", srs.StateReview, testNow.Add(-time.Hour))
		store.MarkReviewed("handled", testNow)
		putState(store, "due", srs.StateReview, testNow.Add(-time.Hour))
		putState(store, "learning", srs.StateLearning, testNow.Add(time.Hour))

		catalog := []testItem{{key: "future"}, {key: "handled"}, {key: "due"}, {key: "learning"}, {key: "unseen"}}
		cards, err := p.PracticeAhead(catalog, store, nil, 10)
		if err != nil {
			t.Fatal(err)
		}

		keys := map[string]bool{}
		for _, c := range cards {
			keys[c.Item.Key()] = true
		}
		if len(cards) != 2 || !keys["future"] || !keys["handled"] {
			t.Errorf("expected exactly {future, handled}, got %v", keys)
		}
	})

	t.Run("sorted soonest-due first and truncated", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "far", srs.StateReview, testNow.Add(72*time.Hour))
		putState(store, "near", srs.StateReview, testNow.Add(12*time.Hour))
		putState(store, "mid", srs.StateReview, testNow.Add(36*time.Hour))

		catalog := []testItem{{key: "far"}, {key: "near"}, {key: "mid"}}
		cards, err := p.PracticeAhead(catalog, store, nil, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(cards) != 2 {
			t.Fatalf("expected 2 cards, got %d", len(cards))
		}
		if cards[0].Item.Key() != "near" || cards[1].Item.Key() != "mid" {
			t.Errorf("expected [near mid], got [%s %s]", cards[0].Item.Key(), cards[1].Item.Key())
		}
	})

	t.Run("filters apply", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "in", srs.StateReview, testNow.Add(time.Hour))
		putState(store, "out", srs.StateReview, testNow.Add(time.Hour))

		match := func(i testItem) bool { return i.key == "in" }
		cards, err := p.PracticeAhead([]testItem{{key: "in"}, {key: "out"}}, store, match, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(cards) != 1 || cards[0].Item.Key() != "in" {
			t.Errorf("expected only the matching card, got %v", cards)
		}
	})
}

func TestExtraNew(t *testing.T) {
	t.Run("catalog order quota independent", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		// Exhaust the daily quota; extra-new must ignore it.
		for i := 0; i < 10; i++ {
			store.MarkNew(fmt.Sprintf("quota-%d", i), testNow)
		}

		cards := p.ExtraNew(items(5), store, nil, 3)
		if len(cards) != 3 {
			t.Fatalf("expected 3 cards, got %d", len(cards))
		}
		for i, c := range cards {
			want := fmt.Sprintf("item-%02d", i)
			if c.Item.Key() != want {
				t.Errorf("card %d = %s, want %s (catalog order)", i, c.Item.Key(), want)
			}
		}
	})

	t.Run("skips studied and already-introduced items", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "studied", srs.StateReview, testNow.Add(time.Hour))
		store.MarkNew("introduced", testNow)

		catalog := []testItem{{key: "studied"}, {key: "introduced"}, {key: "fresh"}}
		cards := p.ExtraNew(catalog, store, nil, 5)
		if len(cards) != 1 || cards[0].Item.Key() != "fresh" {
			t.Errorf("expected only the fresh item, got %v", cards)
		}
	})
}

func TestDueCount(t *testing.T) {
	t.Run("matches session output size", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		putState(store, "item-00", srs.StateReview, testNow.Add(-time.Hour))
		putState(store, "item-01", srs.StateReview, testNow.Add(time.Hour))
		putState(store, "item-02", srs.StateLearning, testNow.Add(time.Hour))
		putState(store, "item-03", srs.StateRelearning, testNow.Add(-time.Hour))
		store.MarkReviewed("item-03", testNow)
		store.MarkNew("item-04", testNow)

		catalog := items(12)
		match := func(i testItem) bool { return i.key != "item-05" }
		s := settings(4)

		session, err := p.SessionCards(catalog, store, match, s)
		if err != nil {
			t.Fatal(err)
		}
		count, err := p.DueCount(catalog, store, match, s)
		if err != nil {
			t.Fatal(err)
		}
		if want := len(session.Review) + len(session.New); count != want {
			t.Errorf("DueCount = %d, want %d", count, want)
		}
	})

	t.Run("malformed state is surfaced", func(t *testing.T) {
		p := newTestPlanner()
		store := review.NewStore(testNow)
		store.Put(review.Record{Key: "broken", Card: srs.MemoryState{State: srs.StateLearning}})

		_, err := p.DueCount([]testItem{{key: "broken"}}, store, nil, settings(10))
		if !errors.Is(err, srs.ErrMalformedState) {
			t.Errorf("expected ErrMalformedState, got %v", err)
		}
	})
}

func TestProgressStats(t *testing.T) {
	p := newTestPlanner()
	store := review.NewStore(testNow)
	putState(store, "item-00", srs.StateReview, testNow.Add(time.Hour))
	putState(store, "item-01", srs.StateLearning, testNow.Add(time.Hour))

	stats, err := p.ProgressStats(items(5), store, nil, settings(10))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 5 {
		t.Errorf("Total = %d, want 5", stats.Total)
	}
	if stats.Learned != 2 {
		t.Errorf("Learned = %d, want 2", stats.Learned)
	}
	if stats.Mastered != 1 {
		t.Errorf("Mastered = %d, want 1", stats.Mastered)
	}
	// Learning item-01 counts, plus three new items within quota.
	if stats.Due != 4 {
		t.Errorf("Due = %d, want 4", stats.Due)
	}
}
