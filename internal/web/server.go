// Package web exposes the scheduling engine over a JSON HTTP API
// consumed by the frontend.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/polingu/polingu/internal/domain"
	"github.com/polingu/polingu/internal/review"
	"github.com/polingu/polingu/internal/scheduler"
	"github.com/polingu/polingu/internal/srs"
	"github.com/polingu/polingu/internal/storage"
	"github.com/polingu/polingu/internal/syncer"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db           *storage.DB
	engine       *srs.Engine
	router       *http.ServeMux
	validate     *validator.Validate
	reposDir     string
	defaultQuota int // new-cards-per-day fallback for decks without saved settings

	declension  *scheduler.Planner[domain.DeclensionCard]
	vocabulary  *scheduler.Planner[domain.VocabularyWord]
	sentences   *scheduler.Planner[domain.Sentence]
	conjugation *scheduler.Planner[domain.DrillableForm]
}

// NewServer creates and configures a new server. defaultQuota is the
// configured new-cards-per-day applied where no settings are stored.
func NewServer(db *storage.DB, engine *srs.Engine, reposDir string, defaultQuota int) *Server {
	s := &Server{
		db:           db,
		engine:       engine,
		router:       http.NewServeMux(),
		validate:     validator.New(),
		reposDir:     reposDir,
		defaultQuota: defaultQuota,
		declension:   scheduler.New[domain.DeclensionCard](engine),
		vocabulary:   scheduler.New[domain.VocabularyWord](engine),
		sentences:    scheduler.New[domain.Sentence](engine),
		conjugation:  scheduler.New[domain.DrillableForm](engine),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /api/session", s.handleSession)
	s.router.HandleFunc("GET /api/practice-ahead", s.handlePracticeAhead)
	s.router.HandleFunc("GET /api/extra-new", s.handleExtraNew)
	s.router.HandleFunc("GET /api/intervals", s.handleIntervals)
	s.router.HandleFunc("POST /api/review", s.handleReview)
	s.router.HandleFunc("GET /api/counts", s.handleCounts)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /api/settings", s.handlePutSettings)
	s.router.HandleFunc("POST /api/words", s.handleAddWord)
	s.router.HandleFunc("DELETE /api/words/{id}", s.handleDeleteWord)
	s.router.HandleFunc("POST /api/sync", s.handleSync)
	s.router.HandleFunc("POST /api/clear", s.handleClear)
}

// cardPayload is the wire shape of one session card.
type cardPayload struct {
	Key   string    `json:"key"`
	Item  any       `json:"item"`
	IsNew bool      `json:"isNew"`
	State int       `json:"state"`
	Due   time.Time `json:"due"`
}

type sessionPayload struct {
	ReviewCards []cardPayload `json:"reviewCards"`
	NewCards    []cardPayload `json:"newCards"`
}

func toPayload[T scheduler.Item](cards []scheduler.Card[T]) []cardPayload {
	out := make([]cardPayload, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardPayload{
			Key:   c.Item.Key(),
			Item:  c.Item,
			IsNew: c.IsNew,
			State: int(c.Record.Card.State),
			Due:   c.Record.Card.Due,
		})
	}
	return out
}

// deckContext resolves the deck, direction, store and settings shared
// by the planning handlers.
func (s *Server) deckContext(w http.ResponseWriter, r *http.Request) (domain.Deck, domain.Direction, *review.Store, review.Settings, bool) {
	deck := domain.Deck(r.URL.Query().Get("deck"))
	if !deck.Valid() {
		http.Error(w, "unknown deck", http.StatusBadRequest)
		return "", "", nil, review.Settings{}, false
	}
	dir := requestDirection(r, deck)
	if !dir.Valid() {
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return "", "", nil, review.Settings{}, false
	}

	store, err := s.db.LoadStore(deck, dir, time.Now())
	if err != nil {
		slog.Error("failed to load review store", "deck", deck, "direction", dir, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", "", nil, review.Settings{}, false
	}
	settings, err := s.db.LoadSettings(deck, dir, s.defaultQuota)
	if err != nil {
		slog.Error("failed to load settings", "deck", deck, "direction", dir, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", "", nil, review.Settings{}, false
	}
	return deck, dir, store, settings, true
}

// requestDirection returns the review direction for the request. The
// declension deck is drilled in one direction only.
func requestDirection(r *http.Request, deck domain.Deck) domain.Direction {
	if deck == domain.DeckDeclension {
		return domain.PlToEn
	}
	dir := domain.Direction(r.URL.Query().Get("direction"))
	if dir == "" {
		dir = domain.PlToEn
	}
	return dir
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	deck, _, store, settings, ok := s.deckContext(w, r)
	if !ok {
		return
	}

	var payload sessionPayload
	err := s.withDeck(deck, r,
		func(items []domain.DeclensionCard, match scheduler.MatchFunc[domain.DeclensionCard]) error {
			session, err := s.declension.SessionCards(items, store, match, settings)
			payload = sessionPayload{toPayload(session.Review), toPayload(session.New)}
			return err
		},
		func(items []domain.VocabularyWord, match scheduler.MatchFunc[domain.VocabularyWord]) error {
			session, err := s.vocabulary.SessionCards(items, store, match, settings)
			payload = sessionPayload{toPayload(session.Review), toPayload(session.New)}
			return err
		},
		func(items []domain.Sentence, match scheduler.MatchFunc[domain.Sentence]) error {
			session, err := s.sentences.SessionCards(items, store, match, settings)
			payload = sessionPayload{toPayload(session.Review), toPayload(session.New)}
			return err
		},
		func(items []domain.DrillableForm, match scheduler.MatchFunc[domain.DrillableForm]) error {
			session, err := s.conjugation.SessionCards(items, store, match, settings)
			payload = sessionPayload{toPayload(session.Review), toPayload(session.New)}
			return err
		},
	)
	if err != nil {
		slog.Error("failed to build session", "deck", deck, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payload)
}

func (s *Server) handlePracticeAhead(w http.ResponseWriter, r *http.Request) {
	deck, _, store, _, ok := s.deckContext(w, r)
	if !ok {
		return
	}
	count := queryInt(r, "count", 20)

	var payload []cardPayload
	err := s.withDeck(deck, r,
		func(items []domain.DeclensionCard, match scheduler.MatchFunc[domain.DeclensionCard]) error {
			cards, err := s.declension.PracticeAhead(items, store, match, count)
			payload = toPayload(cards)
			return err
		},
		func(items []domain.VocabularyWord, match scheduler.MatchFunc[domain.VocabularyWord]) error {
			cards, err := s.vocabulary.PracticeAhead(items, store, match, count)
			payload = toPayload(cards)
			return err
		},
		func(items []domain.Sentence, match scheduler.MatchFunc[domain.Sentence]) error {
			cards, err := s.sentences.PracticeAhead(items, store, match, count)
			payload = toPayload(cards)
			return err
		},
		func(items []domain.DrillableForm, match scheduler.MatchFunc[domain.DrillableForm]) error {
			cards, err := s.conjugation.PracticeAhead(items, store, match, count)
			payload = toPayload(cards)
			return err
		},
	)
	if err != nil {
		slog.Error("failed to build practice-ahead list", "deck", deck, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payload)
}

func (s *Server) handleExtraNew(w http.ResponseWriter, r *http.Request) {
	deck, _, store, _, ok := s.deckContext(w, r)
	if !ok {
		return
	}
	count := queryInt(r, "count", 5)

	var payload []cardPayload
	err := s.withDeck(deck, r,
		func(items []domain.DeclensionCard, match scheduler.MatchFunc[domain.DeclensionCard]) error {
			payload = toPayload(s.declension.ExtraNew(items, store, match, count))
			return nil
		},
		func(items []domain.VocabularyWord, match scheduler.MatchFunc[domain.VocabularyWord]) error {
			payload = toPayload(s.vocabulary.ExtraNew(items, store, match, count))
			return nil
		},
		func(items []domain.Sentence, match scheduler.MatchFunc[domain.Sentence]) error {
			payload = toPayload(s.sentences.ExtraNew(items, store, match, count))
			return nil
		},
		func(items []domain.DrillableForm, match scheduler.MatchFunc[domain.DrillableForm]) error {
			payload = toPayload(s.conjugation.ExtraNew(items, store, match, count))
			return nil
		},
	)
	if err != nil {
		slog.Error("failed to build extra-new list", "deck", deck, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payload)
}

func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	_, _, store, _, ok := s.deckContext(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	now := time.Now()
	rec := store.GetOrCreate(key, s.engine, now)
	intervals := s.engine.NextIntervals(rec.Card, now)

	writeJSON(w, map[string]string{
		"again": intervals[srs.Again],
		"hard":  intervals[srs.Hard],
		"good":  intervals[srs.Good],
		"easy":  intervals[srs.Easy],
	})
}

type reviewRequest struct {
	Deck      string `json:"deck"`
	Direction string `json:"direction"`
	Key       string `json:"key"`
	Rating    int    `json:"rating"` // 1=Again .. 4=Easy
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	deck := domain.Deck(req.Deck)
	if !deck.Valid() {
		http.Error(w, "unknown deck", http.StatusBadRequest)
		return
	}
	dir := domain.Direction(req.Direction)
	if deck == domain.DeckDeclension {
		dir = domain.PlToEn
	}
	if !dir.Valid() {
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return
	}
	if req.Rating < int(srs.Again) || req.Rating > int(srs.Easy) {
		http.Error(w, "rating must be 1-4", http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	now := time.Now()
	store, err := s.db.LoadStore(deck, dir, now)
	if err != nil {
		slog.Error("failed to load review store", "deck", deck, "direction", dir, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := store.Records[req.Key]; !ok {
		known, err := s.catalogHasKey(deck, req.Key)
		if err != nil {
			slog.Error("failed to check catalog", "deck", deck, "key", req.Key, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !known {
			http.Error(w, "unknown item key", http.StatusBadRequest)
			return
		}
	}

	rec := store.GetOrCreate(req.Key, s.engine, now)
	wasNew := rec.Card.State == srs.StateNew

	updated := scheduler.Rate(s.engine, rec, srs.Rating(req.Rating), now)
	store.Put(updated)
	if wasNew {
		store.MarkNew(req.Key, now)
	} else {
		store.MarkReviewed(req.Key, now)
	}

	if err := s.db.SaveRecord(deck, dir, updated, store); err != nil {
		slog.Error("failed to persist rating", "deck", deck, "key", req.Key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"key":   updated.Key,
		"state": int(updated.Card.State),
		"due":   updated.Card.Due,
	})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	total := 0
	for _, deck := range domain.Decks {
		deckTotal := 0
		for _, dir := range deckDirections(deck) {
			n, err := s.dueCount(deck, dir)
			if err != nil {
				slog.Error("failed to compute due count", "deck", deck, "direction", dir, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			deckTotal += n
		}
		counts[string(deck)] = deckTotal
		total += deckTotal
	}
	counts["total"] = total
	writeJSON(w, counts)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]scheduler.Progress{}
	for _, deck := range domain.Decks {
		for _, dir := range deckDirections(deck) {
			p, err := s.progress(deck, dir)
			if err != nil {
				slog.Error("failed to compute progress", "deck", deck, "direction", dir, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			name := string(deck)
			if len(deckDirections(deck)) > 1 {
				name = name + "/" + string(dir)
			}
			stats[name] = p
		}
	}
	writeJSON(w, stats)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_, _, _, settings, ok := s.deckContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	deck := domain.Deck(r.URL.Query().Get("deck"))
	if !deck.Valid() {
		http.Error(w, "unknown deck", http.StatusBadRequest)
		return
	}
	dir := requestDirection(r, deck)
	if !dir.Valid() {
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return
	}

	var settings review.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	settings.Direction = string(dir)
	if err := s.validate.Struct(&settings); err != nil {
		http.Error(w, "newCardsPerDay must be at least 1", http.StatusBadRequest)
		return
	}

	if err := s.db.SaveSettings(deck, dir, settings); err != nil {
		slog.Error("failed to save settings", "deck", deck, "direction", dir, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, settings)
}

type addWordRequest struct {
	Polish       string `json:"polish" validate:"required"`
	English      string `json:"english" validate:"required"`
	PartOfSpeech string `json:"partOfSpeech" validate:"required"`
	Gender       string `json:"gender"`
	Notes        string `json:"notes"`
}

func (s *Server) handleAddWord(w http.ResponseWriter, r *http.Request) {
	var req addWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		http.Error(w, "polish, english and partOfSpeech are required", http.StatusBadRequest)
		return
	}

	word := domain.VocabularyWord{
		Polish:       req.Polish,
		English:      req.English,
		PartOfSpeech: domain.PartOfSpeech(req.PartOfSpeech),
		Gender:       req.Gender,
		Notes:        req.Notes,
		IsCustom:     true,
	}
	id, err := s.db.InsertWord(word, "", 0)
	if err != nil {
		slog.Error("failed to insert custom word", "polish", req.Polish, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	word.ID = id
	writeJSON(w, word)
}

func (s *Server) handleDeleteWord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid word id", http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteWord(id); err != nil {
		slog.Error("failed to delete word", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	syncer.RunSync(s.db, s.reposDir) // foreground so the caller sees fresh content
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	deck := domain.Deck(r.URL.Query().Get("deck"))
	if !deck.Valid() {
		http.Error(w, "unknown deck", http.StatusBadRequest)
		return
	}
	dir := requestDirection(r, deck)
	if err := s.db.ClearDeck(deck, dir); err != nil {
		slog.Error("failed to clear deck", "deck", deck, "direction", dir, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withDeck loads the deck's catalog and filters and dispatches to the
// matching typed callback.
func (s *Server) withDeck(
	deck domain.Deck,
	r *http.Request,
	onDeclension func([]domain.DeclensionCard, scheduler.MatchFunc[domain.DeclensionCard]) error,
	onVocabulary func([]domain.VocabularyWord, scheduler.MatchFunc[domain.VocabularyWord]) error,
	onSentences func([]domain.Sentence, scheduler.MatchFunc[domain.Sentence]) error,
	onConjugation func([]domain.DrillableForm, scheduler.MatchFunc[domain.DrillableForm]) error,
) error {
	q := r.URL.Query()
	switch deck {
	case domain.DeckDeclension:
		cards, err := s.db.ListDeclensionCards()
		if err != nil {
			return err
		}
		filters := declensionFiltersFromQuery(q.Get("case"), q.Get("gender"), q.Get("number"))
		return onDeclension(cards, filters.Matches)

	case domain.DeckVocabulary:
		words, err := s.db.ListVocabulary()
		if err != nil {
			return err
		}
		return onVocabulary(words, nil) // the vocabulary deck has no facet filters

	case domain.DeckSentences:
		sentences, err := s.db.ListSentences()
		if err != nil {
			return err
		}
		filters := sentenceFiltersFromQuery(q.Get("levels"))
		return onSentences(sentences, filters.Matches)

	default:
		verbs, err := s.db.ListVerbs()
		if err != nil {
			return err
		}
		filters := conjugationFiltersFromQuery(q.Get("aspect"), q.Get("class"), q.Get("tense"))
		return onConjugation(domain.ExpandVerbs(verbs), filters.Matches)
	}
}

func (s *Server) dueCount(deck domain.Deck, dir domain.Direction) (int, error) {
	now := time.Now()
	store, err := s.db.LoadStore(deck, dir, now)
	if err != nil {
		return 0, err
	}
	settings, err := s.db.LoadSettings(deck, dir, s.defaultQuota)
	if err != nil {
		return 0, err
	}

	switch deck {
	case domain.DeckDeclension:
		cards, err := s.db.ListDeclensionCards()
		if err != nil {
			return 0, err
		}
		return s.declension.DueCount(cards, store, nil, settings)
	case domain.DeckVocabulary:
		words, err := s.db.ListVocabulary()
		if err != nil {
			return 0, err
		}
		return s.vocabulary.DueCount(words, store, nil, settings)
	case domain.DeckSentences:
		sentences, err := s.db.ListSentences()
		if err != nil {
			return 0, err
		}
		return s.sentences.DueCount(sentences, store, domain.AllLevels().Matches, settings)
	default:
		verbs, err := s.db.ListVerbs()
		if err != nil {
			return 0, err
		}
		return s.conjugation.DueCount(domain.ExpandVerbs(verbs), store, nil, settings)
	}
}

func (s *Server) progress(deck domain.Deck, dir domain.Direction) (scheduler.Progress, error) {
	now := time.Now()
	store, err := s.db.LoadStore(deck, dir, now)
	if err != nil {
		return scheduler.Progress{}, err
	}
	settings, err := s.db.LoadSettings(deck, dir, s.defaultQuota)
	if err != nil {
		return scheduler.Progress{}, err
	}

	switch deck {
	case domain.DeckDeclension:
		cards, err := s.db.ListDeclensionCards()
		if err != nil {
			return scheduler.Progress{}, err
		}
		return s.declension.ProgressStats(cards, store, nil, settings)
	case domain.DeckVocabulary:
		words, err := s.db.ListVocabulary()
		if err != nil {
			return scheduler.Progress{}, err
		}
		return s.vocabulary.ProgressStats(words, store, nil, settings)
	case domain.DeckSentences:
		sentences, err := s.db.ListSentences()
		if err != nil {
			return scheduler.Progress{}, err
		}
		return s.sentences.ProgressStats(sentences, store, domain.AllLevels().Matches, settings)
	default:
		verbs, err := s.db.ListVerbs()
		if err != nil {
			return scheduler.Progress{}, err
		}
		return s.conjugation.ProgressStats(domain.ExpandVerbs(verbs), store, nil, settings)
	}
}

// catalogHasKey reports whether key identifies an item in the deck's
// catalog. Ratings for unknown keys are rejected so a typo'd key never
// seeds an orphan review record.
func (s *Server) catalogHasKey(deck domain.Deck, key string) (bool, error) {
	switch deck {
	case domain.DeckDeclension:
		cards, err := s.db.ListDeclensionCards()
		if err != nil {
			return false, err
		}
		return hasKey(cards, key), nil
	case domain.DeckVocabulary:
		words, err := s.db.ListVocabulary()
		if err != nil {
			return false, err
		}
		return hasKey(words, key), nil
	case domain.DeckSentences:
		sentences, err := s.db.ListSentences()
		if err != nil {
			return false, err
		}
		return hasKey(sentences, key), nil
	default:
		verbs, err := s.db.ListVerbs()
		if err != nil {
			return false, err
		}
		return hasKey(domain.ExpandVerbs(verbs), key), nil
	}
}

func hasKey[T scheduler.Item](items []T, key string) bool {
	for _, item := range items {
		if item.Key() == key {
			return true
		}
	}
	return false
}

func deckDirections(deck domain.Deck) []domain.Direction {
	if deck == domain.DeckDeclension {
		return []domain.Direction{domain.PlToEn}
	}
	return domain.Directions
}

func declensionFiltersFromQuery(caseName, gender, number string) domain.DeclensionFilters {
	f := domain.NoDeclensionFilters()
	if caseName != "" {
		f.Case = caseName
	}
	if gender != "" {
		f.Gender = gender
	}
	if number != "" {
		f.Number = number
	}
	return f
}

func sentenceFiltersFromQuery(levels string) domain.SentenceFilters {
	if levels == "" {
		return domain.AllLevels()
	}
	var f domain.SentenceFilters
	for _, level := range strings.Split(levels, ",") {
		f.Levels = append(f.Levels, domain.Level(strings.TrimSpace(level)))
	}
	return f
}

func conjugationFiltersFromQuery(aspect, class, tense string) domain.ConjugationFilters {
	f := domain.NoConjugationFilters()
	if aspect != "" {
		f.Aspect = aspect
	}
	if class != "" {
		f.Class = class
	}
	if tense != "" {
		f.Tense = tense
	}
	return f
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
