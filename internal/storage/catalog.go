package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polingu/polingu/internal/domain"
)

// ListDeclensionCards returns the declension catalog, custom cards
// first so they win session slots over system cards.
func (db *DB) ListDeclensionCards() ([]domain.DeclensionCard, error) {
	rows, err := db.conn.Query(`
		SELECT id, prompt, answer, case_name, gender, number_name, is_custom
		FROM declension_cards ORDER BY is_custom DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list declension cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.DeclensionCard
	for rows.Next() {
		var c domain.DeclensionCard
		if err := rows.Scan(&c.ID, &c.Prompt, &c.Answer, &c.Case, &c.Gender, &c.Number, &c.IsCustom); err != nil {
			return nil, fmt.Errorf("failed to scan declension card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ListVocabulary returns the vocabulary catalog, custom words first.
func (db *DB) ListVocabulary() ([]domain.VocabularyWord, error) {
	rows, err := db.conn.Query(`
		SELECT id, polish, english, part_of_speech, gender, notes, is_custom
		FROM vocabulary_words ORDER BY is_custom DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %w", err)
	}
	defer rows.Close()

	var words []domain.VocabularyWord
	for rows.Next() {
		var w domain.VocabularyWord
		var gender, notes sql.NullString
		if err := rows.Scan(&w.ID, &w.Polish, &w.English, &w.PartOfSpeech, &gender, &notes, &w.IsCustom); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary word: %w", err)
		}
		w.Gender = gender.String
		w.Notes = notes.String
		words = append(words, w)
	}
	return words, rows.Err()
}

// ListSentences returns the sentence catalog, custom sentences first.
func (db *DB) ListSentences() ([]domain.Sentence, error) {
	rows, err := db.conn.Query(`
		SELECT id, polish, english, level, is_custom
		FROM sentences ORDER BY is_custom DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sentences: %w", err)
	}
	defer rows.Close()

	var sentences []domain.Sentence
	for rows.Next() {
		var s domain.Sentence
		if err := rows.Scan(&s.ID, &s.Polish, &s.English, &s.Level, &s.IsCustom); err != nil {
			return nil, fmt.Errorf("failed to scan sentence: %w", err)
		}
		sentences = append(sentences, s)
	}
	return sentences, rows.Err()
}

// ListVerbs returns the verb catalog, custom verbs first.
func (db *DB) ListVerbs() ([]domain.Verb, error) {
	rows, err := db.conn.Query(`
		SELECT id, infinitive, english, aspect, class, conjugations, is_custom
		FROM verbs ORDER BY is_custom DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list verbs: %w", err)
	}
	defer rows.Close()

	var verbs []domain.Verb
	for rows.Next() {
		var v domain.Verb
		var conjJSON string
		if err := rows.Scan(&v.ID, &v.Infinitive, &v.English, &v.Aspect, &v.Class, &conjJSON, &v.IsCustom); err != nil {
			return nil, fmt.Errorf("failed to scan verb: %w", err)
		}
		if err := json.Unmarshal([]byte(conjJSON), &v.Conjugations); err != nil {
			return nil, fmt.Errorf("corrupt conjugations for verb %d: %w", v.ID, err)
		}
		verbs = append(verbs, v)
	}
	return verbs, rows.Err()
}

// InsertWord inserts a vocabulary word and returns its assigned id.
// contentHash and sourceID are set for synced custom words and empty
// for words added through the API.
func (db *DB) InsertWord(w domain.VocabularyWord, contentHash string, sourceID int64) (int, error) {
	var hash sql.NullString
	if contentHash != "" {
		hash = sql.NullString{String: contentHash, Valid: true}
	}
	var source sql.NullInt64
	if sourceID != 0 {
		source = sql.NullInt64{Int64: sourceID, Valid: true}
	}

	res, err := db.conn.Exec(`
		INSERT INTO vocabulary_words
		(polish, english, part_of_speech, gender, notes, is_custom, content_hash, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, w.Polish, w.English, w.PartOfSpeech, w.Gender, w.Notes, w.IsCustom, hash, source)
	if err != nil {
		return 0, fmt.Errorf("failed to insert word %q: %w", w.Polish, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get id for word %q: %w", w.Polish, err)
	}
	return int(id), nil
}

// FindWordByHash looks a synced word up by its content hash. Returns
// nil when absent.
func (db *DB) FindWordByHash(hash string) (*domain.VocabularyWord, error) {
	var w domain.VocabularyWord
	var gender, notes sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, polish, english, part_of_speech, gender, notes, is_custom
		FROM vocabulary_words WHERE content_hash = ?
	`, hash).Scan(&w.ID, &w.Polish, &w.English, &w.PartOfSpeech, &gender, &notes, &w.IsCustom)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find word by hash %s: %w", hash, err)
	}
	w.Gender = gender.String
	w.Notes = notes.String
	return &w, nil
}

// DeleteWord removes a vocabulary word by id.
func (db *DB) DeleteWord(id int) error {
	if _, err := db.conn.Exec(`DELETE FROM vocabulary_words WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete word %d: %w", id, err)
	}
	return nil
}

// WordHashesBySource returns the content hashes of all synced words
// for a source, for orphan reconciliation.
func (db *DB) WordHashesBySource(sourceID int64) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT content_hash, id FROM vocabulary_words
		WHERE source_id = ? AND content_hash IS NOT NULL
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list word hashes for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	hashes := make(map[string]int)
	for rows.Next() {
		var hash string
		var id int
		if err := rows.Scan(&hash, &id); err != nil {
			return nil, fmt.Errorf("failed to scan word hash: %w", err)
		}
		hashes[hash] = id
	}
	return hashes, rows.Err()
}

// UpsertSentence inserts a sentence if its id is not already present.
func (db *DB) UpsertSentence(s domain.Sentence, sourceID int64) error {
	var source sql.NullInt64
	if sourceID != 0 {
		source = sql.NullInt64{Int64: sourceID, Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO sentences (id, polish, english, level, is_custom, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Polish, s.English, s.Level, s.IsCustom, source)
	if err != nil {
		return fmt.Errorf("failed to upsert sentence %s: %w", s.ID, err)
	}
	return nil
}

// DeleteSentence removes a sentence by id.
func (db *DB) DeleteSentence(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM sentences WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sentence %s: %w", id, err)
	}
	return nil
}

// SentenceIDsBySource returns the ids of all synced sentences for a
// source.
func (db *DB) SentenceIDsBySource(sourceID int64) ([]string, error) {
	rows, err := db.conn.Query(`SELECT id FROM sentences WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sentence ids for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sentence id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Source is a content source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its id. Existing
// paths are returned unchanged.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get id for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns nil when
// absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	err := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned FROM sources WHERE path = ?
	`, path).Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all registered sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, type, last_scanned FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source registration. Synced content remains
// until the next reconciliation.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the source with the scan time.
func (db *DB) UpdateSourceLastScanned(id int64) error {
	if _, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", id, err)
	}
	return nil
}
