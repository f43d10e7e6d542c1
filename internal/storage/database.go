// Package storage persists review state, settings, and content
// catalogs in SQLite. The scheduling core never touches this package;
// callers load state here, hand it to the planner, and write back what
// the rating applicator returns.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/polingu/polingu/internal/domain"
	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/srs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up
// to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadStore assembles the review store for a deck and direction, with
// the day-rollover normalization already applied: callers can trust
// the day-scoped sets immediately.
func (db *DB) LoadStore(deck domain.Deck, dir domain.Direction, now time.Time) (*review.Store, error) {
	store := review.NewStore(now)

	rows, err := db.conn.Query(`
		SELECT item_key, state, due, stability, difficulty,
		       elapsed_days, scheduled_days, reps, lapses, last_review, log
		FROM review_cards WHERE deck = ? AND direction = ?
	`, deck, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load review cards for %s/%s: %w", deck, dir, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review card for %s/%s: %w", deck, dir, err)
		}
		store.Records[rec.Key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read review cards for %s/%s: %w", deck, dir, err)
	}

	var lastDate string
	var reviewedJSON, newJSON string
	err = db.conn.QueryRow(`
		SELECT last_review_date, reviewed_today, new_today
		FROM day_state WHERE deck = ? AND direction = ?
	`, deck, dir).Scan(&lastDate, &reviewedJSON, &newJSON)
	switch {
	case err == sql.ErrNoRows:
		// Fresh store, already anchored to today.
	case err != nil:
		return nil, fmt.Errorf("failed to load day state for %s/%s: %w", deck, dir, err)
	default:
		store.LastReviewDate = lastDate
		if store.ReviewedToday, err = unmarshalKeySet(reviewedJSON); err != nil {
			return nil, fmt.Errorf("corrupt reviewed_today for %s/%s: %w", deck, dir, err)
		}
		if store.NewToday, err = unmarshalKeySet(newJSON); err != nil {
			return nil, fmt.Errorf("corrupt new_today for %s/%s: %w", deck, dir, err)
		}
		store.Normalize(now)
	}

	return store, nil
}

// SaveStore writes the full store back in one transaction.
func (db *DB) SaveStore(deck domain.Deck, dir domain.Direction, store *review.Store) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin store save for %s/%s: %w", deck, dir, err)
	}
	defer tx.Rollback()

	for _, rec := range store.Records {
		if err := upsertRecord(tx, deck, dir, rec); err != nil {
			return err
		}
	}
	if err := upsertDayState(tx, deck, dir, store); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit store save for %s/%s: %w", deck, dir, err)
	}
	return nil
}

// SaveRecord upserts a single review record together with the current
// day bookkeeping, the write path after each rating.
func (db *DB) SaveRecord(deck domain.Deck, dir domain.Direction, rec review.Record, store *review.Store) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin record save for %s/%s: %w", deck, dir, err)
	}
	defer tx.Rollback()

	if err := upsertRecord(tx, deck, dir, rec); err != nil {
		return err
	}
	if err := upsertDayState(tx, deck, dir, store); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record save for %s/%s: %w", deck, dir, err)
	}
	return nil
}

func upsertRecord(tx *sql.Tx, deck domain.Deck, dir domain.Direction, rec review.Record) error {
	var logJSON sql.NullString
	if rec.Log != nil {
		raw, err := json.Marshal(rec.Log)
		if err != nil {
			return fmt.Errorf("failed to marshal log for %s: %w", rec.Key, err)
		}
		logJSON = sql.NullString{String: string(raw), Valid: true}
	}

	lastReview := sql.NullTime{Time: rec.Card.LastReview, Valid: !rec.Card.LastReview.IsZero()}

	_, err := tx.Exec(`
		INSERT OR REPLACE INTO review_cards
		(deck, direction, item_key, state, due, stability, difficulty,
		 elapsed_days, scheduled_days, reps, lapses, last_review, log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		deck, dir, rec.Key,
		int(rec.Card.State), rec.Card.Due,
		rec.Card.Stability, rec.Card.Difficulty,
		int64(rec.Card.ElapsedDays), int64(rec.Card.ScheduledDays),
		int64(rec.Card.Reps), int64(rec.Card.Lapses),
		lastReview, logJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review card %s: %w", rec.Key, err)
	}
	return nil
}

func upsertDayState(tx *sql.Tx, deck domain.Deck, dir domain.Direction, store *review.Store) error {
	reviewedJSON, err := marshalKeySet(store.ReviewedToday)
	if err != nil {
		return fmt.Errorf("failed to marshal reviewed_today: %w", err)
	}
	newJSON, err := marshalKeySet(store.NewToday)
	if err != nil {
		return fmt.Errorf("failed to marshal new_today: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO day_state
		(deck, direction, last_review_date, reviewed_today, new_today)
		VALUES (?, ?, ?, ?, ?)
	`, deck, dir, store.LastReviewDate, reviewedJSON, newJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert day state: %w", err)
	}
	return nil
}

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row recordScanner) (review.Record, error) {
	var rec review.Record
	var state int
	var elapsed, scheduled, reps, lapses int64
	var lastReview sql.NullTime
	var logJSON sql.NullString

	err := row.Scan(
		&rec.Key, &state, &rec.Card.Due,
		&rec.Card.Stability, &rec.Card.Difficulty,
		&elapsed, &scheduled, &reps, &lapses,
		&lastReview, &logJSON,
	)
	if err != nil {
		return review.Record{}, err
	}

	rec.Card.State = srs.State(state)
	rec.Card.ElapsedDays = uint64(elapsed)
	rec.Card.ScheduledDays = uint64(scheduled)
	rec.Card.Reps = uint64(reps)
	rec.Card.Lapses = uint64(lapses)
	if lastReview.Valid {
		rec.Card.LastReview = lastReview.Time
	}
	if logJSON.Valid {
		var log srs.ReviewLog
		if err := json.Unmarshal([]byte(logJSON.String), &log); err != nil {
			return review.Record{}, fmt.Errorf("corrupt log: %w", err)
		}
		rec.Log = &log
	}
	return rec, nil
}

// LoadSettings returns the stored settings for a deck and direction.
// When none were saved yet it falls back to defaultPerDay, or the
// package default if defaultPerDay is not positive.
func (db *DB) LoadSettings(deck domain.Deck, dir domain.Direction, defaultPerDay int) (review.Settings, error) {
	var perDay int
	err := db.conn.QueryRow(`
		SELECT new_cards_per_day FROM settings WHERE deck = ? AND direction = ?
	`, deck, dir).Scan(&perDay)
	if err == sql.ErrNoRows {
		s := review.DefaultSettings(string(dir))
		if defaultPerDay > 0 {
			s.NewCardsPerDay = defaultPerDay
		}
		return s, nil
	}
	if err != nil {
		return review.Settings{}, fmt.Errorf("failed to load settings for %s/%s: %w", deck, dir, err)
	}
	return review.Settings{NewCardsPerDay: perDay, Direction: string(dir)}, nil
}

// SaveSettings persists the settings for a deck and direction.
func (db *DB) SaveSettings(deck domain.Deck, dir domain.Direction, s review.Settings) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO settings (deck, direction, new_cards_per_day)
		VALUES (?, ?, ?)
	`, deck, dir, s.NewCardsPerDay)
	if err != nil {
		return fmt.Errorf("failed to save settings for %s/%s: %w", deck, dir, err)
	}
	return nil
}

// ClearDeck removes all review state and settings for a deck and
// direction, resetting its progress. Catalog content is untouched.
func (db *DB) ClearDeck(deck domain.Deck, dir domain.Direction) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear for %s/%s: %w", deck, dir, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM review_cards WHERE deck = ? AND direction = ?`,
		`DELETE FROM day_state WHERE deck = ? AND direction = ?`,
		`DELETE FROM settings WHERE deck = ? AND direction = ?`,
	} {
		if _, err := tx.Exec(stmt, deck, dir); err != nil {
			return fmt.Errorf("failed to clear %s/%s: %w", deck, dir, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear for %s/%s: %w", deck, dir, err)
	}
	return nil
}

func marshalKeySet(set map[string]struct{}) (string, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalKeySet(raw string) (map[string]struct{}, error) {
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}
