// Package parser reads deck files synced from content sources.
//
// Vocabulary files (*.vocab.md) hold entries of pl:/en:/pos:/note:
// lines; sentence files (*.sentences.md) hold pl:/en:/level: lines.
// Entries are separated by "---" or by the next pl: line. Values may
// continue over following unprefixed lines.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/polingu/polingu/internal/domain"
)

const (
	polishPrefix  = "pl:"
	englishPrefix = "en:"
	posPrefix     = "pos:"
	notePrefix    = "note:"
	levelPrefix   = "level:"
)

var prefixes = []string{polishPrefix, englishPrefix, posPrefix, notePrefix, levelPrefix}

// entry is one parsed block of prefixed fields.
type entry map[string]string

// parseEntries runs the line scanner shared by both file kinds.
func parseEntries(r io.Reader) ([]entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []entry
	current := entry{}
	var field string
	var block []string

	finishField := func() {
		if field != "" && len(block) > 0 {
			current[field] = strings.TrimSpace(strings.Join(block, "\n"))
		}
		field = ""
		block = nil
	}

	finishEntry := func() {
		finishField()
		if len(current) > 0 {
			entries = append(entries, current)
		}
		current = entry{}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishEntry()
			continue
		}

		matched := ""
		for _, prefix := range prefixes {
			if strings.HasPrefix(line, prefix) {
				matched = prefix
				break
			}
		}

		if matched == "" {
			if field != "" {
				block = append(block, line)
			}
			continue
		}

		// A new pl: line always starts a new entry.
		if matched == polishPrefix && current[polishPrefix] != "" {
			finishEntry()
		} else {
			finishField()
		}
		field = matched
		block = append(block, strings.TrimPrefix(line[len(matched):], " "))
	}
	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseVocabulary extracts custom vocabulary words. Entries missing
// either side of the word pair are dropped; an unknown part of speech
// falls back to "noun".
func ParseVocabulary(r io.Reader) ([]domain.VocabularyWord, error) {
	entries, err := parseEntries(r)
	if err != nil {
		return nil, err
	}

	var words []domain.VocabularyWord
	for _, e := range entries {
		if e[polishPrefix] == "" || e[englishPrefix] == "" {
			continue
		}
		pos := domain.PartOfSpeech(e[posPrefix])
		if !validPartOfSpeech(pos) {
			pos = "noun"
		}
		words = append(words, domain.VocabularyWord{
			Polish:       e[polishPrefix],
			English:      e[englishPrefix],
			PartOfSpeech: pos,
			Notes:        e[notePrefix],
			IsCustom:     true,
		})
	}
	return words, nil
}

// ParseSentences extracts custom sentences. Entries missing either
// side are dropped; an unknown or missing level falls back to A1.
func ParseSentences(r io.Reader) ([]domain.Sentence, error) {
	entries, err := parseEntries(r)
	if err != nil {
		return nil, err
	}

	var sentences []domain.Sentence
	for _, e := range entries {
		if e[polishPrefix] == "" || e[englishPrefix] == "" {
			continue
		}
		level := domain.Level(e[levelPrefix])
		if !validLevel(level) {
			level = "A1"
		}
		sentences = append(sentences, domain.Sentence{
			Polish:   e[polishPrefix],
			English:  e[englishPrefix],
			Level:    level,
			IsCustom: true,
		})
	}
	return sentences, nil
}

// ParseVocabularyFile reads a vocabulary deck file from disk.
func ParseVocabularyFile(path string) ([]domain.VocabularyWord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseVocabulary(file)
}

// ParseSentencesFile reads a sentence deck file from disk.
func ParseSentencesFile(path string) ([]domain.Sentence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSentences(file)
}

func validPartOfSpeech(pos domain.PartOfSpeech) bool {
	for _, p := range domain.PartsOfSpeech {
		if p == pos {
			return true
		}
	}
	return false
}

func validLevel(level domain.Level) bool {
	for _, l := range domain.Levels {
		if l == level {
			return true
		}
	}
	return false
}
