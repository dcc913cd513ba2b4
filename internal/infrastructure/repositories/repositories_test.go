package repositories_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/infrastructure/repositories"
)

type fixedPageCounter struct{ pages int }

func (c fixedPageCounter) CountPages([]byte) (int, error) { return c.pages, nil }

func TestFileSystemRepository_ListPDFFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{"b.pdf", "a.PDF", "notes.txt", filepath.Join("nested", "c.pdf")}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("%PDF-1.7"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repositories.NewFileSystemRepository().ListPDFFiles(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested", "c.pdf"),
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, got[i])
		}
	}
}

func TestFileSystemRepository_WriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "result.pdf")
	repo := repositories.NewFileSystemRepository()

	if err := repo.WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := repo.WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := repo.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("Expected overwritten content, got %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Temporary files must not remain, got %d entries", len(entries))
	}
}

func TestFileSystemRepository_GetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 body"), 0644); err != nil {
		t.Fatal(err)
	}

	repo := repositories.NewFileSystemRepository().WithPageCounter(fixedPageCounter{pages: 4})
	info, err := repo.GetFileInfo(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info.Size != 13 || info.Pages != 4 {
		t.Errorf("Unexpected info: %+v", info)
	}

	_, err = repo.GetFileInfo(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, entities.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
}

func TestSQLiteHistoryRepository_RecordAndRecent(t *testing.T) {
	repo, err := repositories.NewSQLiteHistoryRepository(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	for i, name := range []string{"first.pdf", "second.pdf"} {
		result := entities.NewCompressionResult(2048*1024, 512*1024, time.Second)
		result.InputPath = name
		result.Profile = entities.SelectProfile(2)
		result.Iterations = i
		result.RefineState = entities.RefineDone
		result.TargetReached = true
		if err := repo.Record(ctx, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	records, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].InputPath != "second.pdf" {
		t.Errorf("Newest record must come first, got %s", records[0].InputPath)
	}
	rec := records[0]
	if rec.ID == "" || rec.Tier != entities.TierRecommended || rec.RefineState != "done" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.CompressionRatioPercent != 75 {
		t.Errorf("Expected 75%% ratio, got %d", rec.CompressionRatioPercent)
	}

	limited, err := repo.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d (%v)", len(limited), err)
	}
}

func TestNewHistoryRepository_Disabled(t *testing.T) {
	repo, err := repositories.NewHistoryRepository(entities.HistoryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := repo.Record(context.Background(), &entities.CompressionResult{}); err != nil {
		t.Errorf("No-op record must succeed: %v", err)
	}
	records, err := repo.Recent(context.Background(), 5)
	if err != nil || len(records) != 0 {
		t.Errorf("Expected empty history, got %v (%v)", records, err)
	}
}
