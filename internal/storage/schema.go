package storage

const schema = `
-- Catalog tables. Custom rows are user-authored and are always listed
-- ahead of system rows.
CREATE TABLE IF NOT EXISTS declension_cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL,
    case_name TEXT NOT NULL,
    gender TEXT NOT NULL,
    number_name TEXT NOT NULL,
    is_custom INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS vocabulary_words (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    polish TEXT NOT NULL,
    english TEXT NOT NULL,
    part_of_speech TEXT NOT NULL,
    gender TEXT,
    notes TEXT,
    is_custom INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT UNIQUE,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE TABLE IF NOT EXISTS sentences (
    id TEXT PRIMARY KEY,
    polish TEXT NOT NULL,
    english TEXT NOT NULL,
    level TEXT NOT NULL,
    is_custom INTEGER NOT NULL DEFAULT 0,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE TABLE IF NOT EXISTS verbs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    infinitive TEXT NOT NULL,
    english TEXT NOT NULL,
    aspect TEXT NOT NULL,
    class TEXT NOT NULL,
    conjugations TEXT NOT NULL, -- JSON: tense -> person -> form
    is_custom INTEGER NOT NULL DEFAULT 0
);

-- One row per (deck, direction, item). Columns mirror the memory-model
-- state so a row round-trips losslessly.
CREATE TABLE IF NOT EXISTS review_cards (
    deck TEXT NOT NULL,
    direction TEXT NOT NULL,
    item_key TEXT NOT NULL,
    state INTEGER NOT NULL,
    due DATETIME NOT NULL,
    stability REAL NOT NULL,
    difficulty REAL NOT NULL,
    elapsed_days INTEGER NOT NULL,
    scheduled_days INTEGER NOT NULL,
    reps INTEGER NOT NULL,
    lapses INTEGER NOT NULL,
    last_review DATETIME,
    log TEXT, -- JSON audit record of the last rating

    PRIMARY KEY(deck, direction, item_key)
);

-- Day-scoped bookkeeping, valid only while last_review_date is today.
CREATE TABLE IF NOT EXISTS day_state (
    deck TEXT NOT NULL,
    direction TEXT NOT NULL,
    last_review_date TEXT NOT NULL,
    reviewed_today TEXT NOT NULL, -- JSON array of item keys
    new_today TEXT NOT NULL,      -- JSON array of item keys

    PRIMARY KEY(deck, direction)
);

CREATE TABLE IF NOT EXISTS settings (
    deck TEXT NOT NULL,
    direction TEXT NOT NULL,
    new_cards_per_day INTEGER NOT NULL,

    PRIMARY KEY(deck, direction)
);

-- Content sources: local directories or git repositories of deck files.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL, -- 'local' or 'git'
    last_scanned DATETIME
);
`
