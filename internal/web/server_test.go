package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/polingu/polingu/internal/domain"
	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/srs"
	"github.com/polingu/polingu/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewServer(db, srs.NewEngine(), t.TempDir(), 10), db
}

func postReview(t *testing.T, s *Server, body reviewRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/review", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleReview(t *testing.T) {
	s, db := newTestServer(t)
	id, err := db.InsertWord(domain.VocabularyWord{
		Polish:       "kot",
		English:      "cat",
		PartOfSpeech: "noun",
	}, "", 0)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("rates a catalog item", func(t *testing.T) {
		resp := postReview(t, s, reviewRequest{
			Deck:      "vocabulary",
			Direction: "pl-to-en",
			Key:       strconv.Itoa(id),
			Rating:    int(srs.Good),
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}

		store, err := db.LoadStore(domain.DeckVocabulary, domain.PlToEn, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		rec, ok := store.Records[strconv.Itoa(id)]
		if !ok {
			t.Fatal("expected the rating to be persisted")
		}
		if rec.Card.State == srs.StateNew {
			t.Error("expected the rated card to leave the New state")
		}
	})

	t.Run("rejects keys absent from the catalog", func(t *testing.T) {
		resp := postReview(t, s, reviewRequest{
			Deck:      "vocabulary",
			Direction: "pl-to-en",
			Key:       "999",
			Rating:    int(srs.Good),
		})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}

		store, err := db.LoadStore(domain.DeckVocabulary, domain.PlToEn, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := store.Records["999"]; ok {
			t.Error("expected no review record for the unknown key")
		}
	})

	t.Run("still rates stored items that left the catalog", func(t *testing.T) {
		now := time.Now()
		store, err := db.LoadStore(domain.DeckVocabulary, domain.PlToEn, now)
		if err != nil {
			t.Fatal(err)
		}
		ghost := review.Record{
			Key: "42",
			Card: srs.MemoryState{
				State:      srs.StateReview,
				Due:        now.Add(-time.Hour),
				Stability:  1,
				Difficulty: 5,
			},
		}
		store.Put(ghost)
		if err := db.SaveRecord(domain.DeckVocabulary, domain.PlToEn, ghost, store); err != nil {
			t.Fatal(err)
		}

		resp := postReview(t, s, reviewRequest{
			Deck:      "vocabulary",
			Direction: "pl-to-en",
			Key:       "42",
			Rating:    int(srs.Good),
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}
	})

	t.Run("rejects out-of-range rating", func(t *testing.T) {
		resp := postReview(t, s, reviewRequest{
			Deck:      "vocabulary",
			Direction: "pl-to-en",
			Key:       strconv.Itoa(id),
			Rating:    7,
		})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
	})
}
