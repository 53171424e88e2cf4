package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "platescan.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_Schema(t *testing.T) {
	s := newTestStore(t)

	objects := []struct {
		kind string
		name string
	}{
		{"table", "detections"},
		{"table", "watchlist"},
		{"index", "idx_detections_detected_at"},
		{"index", "idx_detections_normalized"},
	}
	for _, obj := range objects {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type=? AND name=?",
			obj.kind, obj.name,
		).Scan(&name)
		if err != nil {
			t.Errorf("%s %q should exist after migrations: %v", obj.kind, obj.name, err)
		}
	}

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "platescan.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	d := &Detection{ID: uuid.NewString(), Text: "KA01AB1234", Normalized: "KA01AB1234", Width: 100, Height: 50}
	if err := s.Detections().Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	n, err := s.Detections().Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after reopen, want 1", n)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestDetectionRepository_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Detections()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := &Detection{
		ID:          uuid.NewString(),
		Text:        "KA 01 AB 1234",
		Normalized:  "KA01AB1234",
		X:           90,
		Y:           90,
		Width:       140,
		Height:      60,
		Watchlisted: true,
		Snapshot:    []byte{0xff, 0xd8, 0xff},
		DetectedAt:  at,
	}
	if err := repo.Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Text != d.Text || got.Normalized != d.Normalized {
		t.Errorf("text = %q/%q, want %q/%q", got.Text, got.Normalized, d.Text, d.Normalized)
	}
	if got.X != 90 || got.Y != 90 || got.Width != 140 || got.Height != 60 {
		t.Errorf("box = (%d,%d %dx%d)", got.X, got.Y, got.Width, got.Height)
	}
	if !got.Watchlisted {
		t.Error("Watchlisted = false, want true")
	}
	if !got.HasSnapshot {
		t.Error("HasSnapshot = false, want true")
	}
	if got.Snapshot != nil {
		t.Error("GetByID should not load snapshot bytes")
	}
	if !got.DetectedAt.Equal(at) {
		t.Errorf("DetectedAt = %v, want %v", got.DetectedAt, at)
	}
}

func TestDetectionRepository_CreateDefaultsTime(t *testing.T) {
	repo := newTestStore(t).Detections()

	d := &Detection{ID: uuid.NewString(), Text: "X1", Normalized: "X1"}
	before := time.Now()
	if err := repo.Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.DetectedAt.Before(before) {
		t.Errorf("DetectedAt = %v, want >= %v", d.DetectedAt, before)
	}
	if d.HasSnapshot {
		t.Error("HasSnapshot should be false without snapshot bytes")
	}
}

func TestDetectionRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestStore(t).Detections()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestDetectionRepository_List(t *testing.T) {
	repo := newTestStore(t).Detections()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	readings := []string{"KA01AB1234", "MH12XY9999", "KA05CD4321", "DL3CAB0001"}
	for i, text := range readings {
		d := &Detection{
			ID:         uuid.NewString(),
			Text:       text,
			Normalized: text,
			DetectedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(d); err != nil {
			t.Fatalf("Create(%s) error = %v", text, err)
		}
	}

	tests := []struct {
		name   string
		filter DetectionFilter
		want   []string
	}{
		{
			name: "all newest first",
			want: []string{"DL3CAB0001", "KA05CD4321", "MH12XY9999", "KA01AB1234"},
		},
		{
			name:   "limit",
			filter: DetectionFilter{Limit: 2},
			want:   []string{"DL3CAB0001", "KA05CD4321"},
		},
		{
			name:   "plate substring",
			filter: DetectionFilter{Plate: "KA0"},
			want:   []string{"KA05CD4321", "KA01AB1234"},
		},
		{
			name:   "substring anywhere",
			filter: DetectionFilter{Plate: "AB"},
			want:   []string{"DL3CAB0001", "KA01AB1234"},
		},
		{
			name:   "no match",
			filter: DetectionFilter{Plate: "ZZZ"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d rows, want %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if d.Normalized != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, d.Normalized, tt.want[i])
				}
			}
		})
	}
}

func TestDetectionRepository_CountMatching(t *testing.T) {
	repo := newTestStore(t).Detections()

	for _, text := range []string{"KA01AB1234", "MH12XY9999", "KA05CD4321"} {
		if err := repo.Create(&Detection{ID: uuid.NewString(), Text: text, Normalized: text}); err != nil {
			t.Fatalf("Create(%s) error = %v", text, err)
		}
	}

	tests := []struct {
		plate string
		want  int
	}{
		{plate: "", want: 3},
		{plate: "KA0", want: 2},
		{plate: "9999", want: 1},
		{plate: "ZZZ", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.plate, func(t *testing.T) {
			n, err := repo.CountMatching(tt.plate)
			if err != nil {
				t.Fatalf("CountMatching() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("CountMatching(%q) = %d, want %d", tt.plate, n, tt.want)
			}
		})
	}
}

func TestDetectionRepository_Snapshot(t *testing.T) {
	repo := newTestStore(t).Detections()

	with := &Detection{ID: uuid.NewString(), Text: "A1", Normalized: "A1", Snapshot: []byte("jpeg-bytes")}
	without := &Detection{ID: uuid.NewString(), Text: "B2", Normalized: "B2"}
	for _, d := range []*Detection{with, without} {
		if err := repo.Create(d); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	data, err := repo.Snapshot(with.ID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Snapshot() = %q, want jpeg-bytes", data)
	}

	if _, err := repo.Snapshot(without.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Snapshot() without data error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Snapshot("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Snapshot() missing error = %v, want ErrNotFound", err)
	}
}

func TestDetectionRepository_Delete(t *testing.T) {
	repo := newTestStore(t).Detections()

	d := &Detection{ID: uuid.NewString(), Text: "A1", Normalized: "A1"}
	if err := repo.Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(d.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestWatchlistRepository(t *testing.T) {
	repo := newTestStore(t).Watchlist()

	entries := []*WatchlistEntry{
		{ID: uuid.NewString(), Plate: "MH12XY9999", Label: "delivery van", MaxDistance: 2},
		{ID: uuid.NewString(), Plate: "KA01AB1234", Label: "stolen", MaxDistance: 1},
	}
	for _, e := range entries {
		if err := repo.Create(e); err != nil {
			t.Fatalf("Create(%s) error = %v", e.Plate, err)
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("Create(%s) did not set CreatedAt", e.Plate)
		}
	}

	got, err := repo.GetByID(entries[0].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Plate != "MH12XY9999" || got.Label != "delivery van" || got.MaxDistance != 2 {
		t.Errorf("GetByID() = %+v", got)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Plate != "KA01AB1234" || list[1].Plate != "MH12XY9999" {
		t.Errorf("List() not ordered by plate: %+v", list)
	}

	dup := &WatchlistEntry{ID: uuid.NewString(), Plate: "KA01AB1234"}
	if err := repo.Create(dup); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create() error = %v, want ErrConflict", err)
	}

	if err := repo.Delete(entries[1].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(entries[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(entries[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}
