package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListLoads(t *testing.T) {
	s := openTestStore(t)

	first, err := s.SaveLoad(LoadRecord{
		Source:        "viz_data.json",
		ModuleCount:   2,
		FunctionCount: 40,
		BlockCount:    900,
		OrphanEdges:   3,
		DurationMS:    12,
	})
	if err != nil {
		t.Fatalf("save load: %v", err)
	}
	if first == "" {
		t.Fatal("expected generated id")
	}

	_, err = s.SaveLoad(LoadRecord{
		Source:    "cov_a_b.db",
		Timestamp: time.Now().UTC().Add(time.Second),
	})
	if err != nil {
		t.Fatalf("save second load: %v", err)
	}

	recent, err := s.RecentLoads(10)
	if err != nil {
		t.Fatalf("recent loads: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Source != "cov_a_b.db" {
		t.Errorf("expected newest record first, got %q", recent[0].Source)
	}
	if recent[1].ID != first || recent[1].OrphanEdges != 3 {
		t.Errorf("first record not round-tripped: %+v", recent[1])
	}
}

func TestSaveBuildRequiresLoad(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.SaveBuild(BuildRecord{ModuleID: 1}); err == nil {
		t.Fatal("expected error for build record without load id")
	}

	loadID, err := s.SaveLoad(LoadRecord{Source: "x.json"})
	if err != nil {
		t.Fatalf("save load: %v", err)
	}
	buildID, err := s.SaveBuild(BuildRecord{
		LoadID:          loadID,
		ModuleID:        1,
		FilterSignature: "s=changed,new;old=false;size=0;newbb=0;d=2;unc=false;name=",
		NodeCount:       10,
		EdgeCount:       14,
		DurationMS:      3,
	})
	if err != nil {
		t.Fatalf("save build: %v", err)
	}
	if buildID == "" {
		t.Fatal("expected generated build id")
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("expected error when path is a directory")
	}
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
