package ident

import "testing"

func TestNormalize(t *testing.T) {
	expected := "what is htmx?\na library for ajax.\nweb development"
	normalized := Normalize("  What is HTMX? \r\n", "A library for AJAX.", "Web Development")

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// Hash for "q\na\nc"
		expectedHash := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		hash := Hash("Q", "A", "C")

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		if Hash("Test") != Hash("Test") {
			t.Error("Expected hashes for identical entries to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		h1 := Hash("  what is go? ", "A programming language.")
		h2 := Hash("What Is Go?", "A programming language.")
		if h1 != h2 {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different entries have different hashes", func(t *testing.T) {
		if Hash("Entry 1") == Hash("Entry 2") {
			t.Error("Expected hashes for different entries to be different")
		}
	})
}
