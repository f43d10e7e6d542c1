package storage

import (
	"path/filepath"
	"testing"

	"github.com/polingu/polingu/internal/domain"
	"github.com/polingu/polingu/internal/review"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadSettings(t *testing.T) {
	t.Run("configured default applies when nothing stored", func(t *testing.T) {
		db := openTestDB(t)

		s, err := db.LoadSettings(domain.DeckVocabulary, domain.PlToEn, 20)
		if err != nil {
			t.Fatal(err)
		}
		if s.NewCardsPerDay != 20 {
			t.Errorf("expected configured default 20, got %d", s.NewCardsPerDay)
		}
	})

	t.Run("package default when no configured default", func(t *testing.T) {
		db := openTestDB(t)

		s, err := db.LoadSettings(domain.DeckVocabulary, domain.PlToEn, 0)
		if err != nil {
			t.Fatal(err)
		}
		if s.NewCardsPerDay != review.DefaultNewCardsPerDay {
			t.Errorf("expected package default %d, got %d", review.DefaultNewCardsPerDay, s.NewCardsPerDay)
		}
	})

	t.Run("stored settings win over the default", func(t *testing.T) {
		db := openTestDB(t)

		saved := review.Settings{NewCardsPerDay: 5, Direction: string(domain.PlToEn)}
		if err := db.SaveSettings(domain.DeckVocabulary, domain.PlToEn, saved); err != nil {
			t.Fatal(err)
		}

		s, err := db.LoadSettings(domain.DeckVocabulary, domain.PlToEn, 20)
		if err != nil {
			t.Fatal(err)
		}
		if s.NewCardsPerDay != 5 {
			t.Errorf("expected stored value 5, got %d", s.NewCardsPerDay)
		}
	})
}
