package cli

import (
	"path/filepath"
	"testing"

	"github.com/mlapaglia/borgitory-go/internal/store"
)

// tempDBApp returns an App wired against a fresh file-backed SQLite
// database under t.TempDir(), so each subcommand's own withCore/WireCore
// call opens a real, migrated, on-disk journal a test can seed ahead of
// time through a separate *store.Store handle.
func tempDBApp(t *testing.T) (*App, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "borgitory.db")
	return &App{dbPath: dbPath}, dbPath
}

// seedRepoAt opens dbPath, inserts a repository row, and closes the
// connection, so a later WireCore call against the same path sees it.
func seedRepoAt(t *testing.T, dbPath, id string) {
	t.Helper()
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()
	if err := s.CreateRepository(id, "repo-"+id, "/data/"+id, "secret"); err != nil {
		t.Fatalf("seed repository: %v", err)
	}
}
