// Package syncer reconciles registered content sources into the deck
// catalogs: new entries are inserted as custom content, entries that
// disappeared from their source are removed.
package syncer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/polingu/polingu/internal/gitsource"
	"github.com/polingu/polingu/internal/ident"
	"github.com/polingu/polingu/internal/parser"
	"github.com/polingu/polingu/internal/storage"
)

const (
	vocabSuffix    = ".vocab.md"
	sentenceSuffix = ".sentences.md"
)

// IsGitURL reports whether a source path should be treated as a git
// remote rather than a local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// RunSync iterates over all registered sources and reconciles them.
// Errors in one source are logged and do not stop the others.
func RunSync(db *storage.DB, reposDir string) {
	slog.Info("starting sync for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		slog.Error("failed to get sources", "error", err)
		return
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		slog.Error("failed to create repos directory", "path", reposDir, "error", err)
		return
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == "git" {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("failed to determine local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("failed to sync git repo", "url", source.Path, "error", err)
				continue
			}
			scanPath = localPath
		}

		reconcileSource(db, source, scanPath)
	}
	slog.Info("sync complete")
}

// reconcileSource walks the source directory, inserting new entries
// and deleting ones no longer present in any file.
func reconcileSource(db *storage.DB, source storage.Source, scanPath string) {
	foundHashes := make(map[string]bool)
	foundSentences := make(map[string]bool)
	var errs []error

	walkErr := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		switch {
		case strings.HasSuffix(name, vocabSuffix):
			words, parseErr := parser.ParseVocabularyFile(path)
			if parseErr != nil {
				errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
				return nil
			}
			for _, word := range words {
				hash := ident.Hash(word.Polish, word.English, string(word.PartOfSpeech))
				foundHashes[hash] = true

				existing, findErr := db.FindWordByHash(hash)
				if findErr != nil {
					errs = append(errs, fmt.Errorf("db check for %s: %w", hash, findErr))
					continue
				}
				if existing == nil {
					slog.Info("new word found, inserting", "polish", word.Polish)
					if _, insertErr := db.InsertWord(word, hash, source.ID); insertErr != nil {
						errs = append(errs, fmt.Errorf("db insert for %s: %w", hash, insertErr))
					}
				}
			}

		case strings.HasSuffix(name, sentenceSuffix):
			sentences, parseErr := parser.ParseSentencesFile(path)
			if parseErr != nil {
				errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
				return nil
			}
			for _, s := range sentences {
				s.ID = ident.Hash(s.Polish, s.English)
				foundSentences[s.ID] = true
				if upsertErr := db.UpsertSentence(s, source.ID); upsertErr != nil {
					errs = append(errs, fmt.Errorf("db upsert for %s: %w", s.ID, upsertErr))
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		slog.Error("failed to walk source directory", "path", scanPath, "error", walkErr)
		return
	}

	orphans := deleteOrphans(db, source, foundHashes, foundSentences)

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"words", len(foundHashes),
		"sentences", len(foundSentences),
		"orphaned_deleted", orphans,
		"errors", len(errs),
	)
	for _, err := range errs {
		slog.Warn("sync issue", "error", err)
	}
}

func deleteOrphans(db *storage.DB, source storage.Source, foundHashes, foundSentences map[string]bool) int {
	deleted := 0

	hashes, err := db.WordHashesBySource(source.ID)
	if err != nil {
		slog.Error("failed to list words for source", "source_id", source.ID, "error", err)
		return deleted
	}
	for hash, id := range hashes {
		if !foundHashes[hash] {
			slog.Info("orphaned word, deleting", "id", id)
			if err := db.DeleteWord(id); err != nil {
				slog.Warn("failed to delete orphaned word", "id", id, "error", err)
				continue
			}
			deleted++
		}
	}

	ids, err := db.SentenceIDsBySource(source.ID)
	if err != nil {
		slog.Error("failed to list sentences for source", "source_id", source.ID, "error", err)
		return deleted
	}
	for _, id := range ids {
		if !foundSentences[id] {
			slog.Info("orphaned sentence, deleting", "id", id)
			if err := db.DeleteSentence(id); err != nil {
				slog.Warn("failed to delete orphaned sentence", "id", id, "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		// scp-style git@host:user/repo.git addresses
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitized := strings.TrimSuffix(parsed.Path, ".git")
	return filepath.Join(baseDir, parsed.Host, sanitized), nil
}
