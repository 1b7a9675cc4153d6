package store

import (
	"errors"
	"testing"
	"time"
)

func TestRecognitionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Recognitions()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []*Recognition{
		{Gesture: "swipe_left", Score: 0.9, TrackingID: 72057594037928000, Published: true, RecognizedAt: base},
		{Gesture: "menu", Score: 1, TrackingID: 1, RecognizedAt: base.Add(time.Second)},
		{Gesture: "swipe_left", Score: 0.8, TrackingID: 1, Published: true, RecognizedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range recs {
		if err := repo.Create(rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if rec.ID == 0 {
			t.Error("expected ID to be set")
		}
	}

	recent, err := repo.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recognitions, got %d", len(recent))
	}
	if recent[0].Gesture != "swipe_left" || recent[0].Score != 0.8 {
		t.Errorf("newest = %+v", recent[0])
	}
	if recent[1].Gesture != "menu" || recent[1].Published {
		t.Errorf("second = %+v", recent[1])
	}
	if !recent[1].RecognizedAt.Equal(base.Add(time.Second)) {
		t.Errorf("recognized at = %v, want %v", recent[1].RecognizedAt, base.Add(time.Second))
	}

	all, _ := repo.ListRecent(0)
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3, got %d", len(all))
	}
	if all[2].TrackingID != 72057594037928000 {
		t.Errorf("tracking id = %d", all[2].TrackingID)
	}

	counts, err := repo.CountByGesture()
	if err != nil {
		t.Fatalf("CountByGesture() error = %v", err)
	}
	if counts["swipe_left"] != 2 || counts["menu"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	n, err := repo.DeleteBefore(base.Add(1500 * time.Millisecond))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
}

func TestRecognitionRepository_DefaultsTimestamp(t *testing.T) {
	s := newTestStore(t)

	rec := &Recognition{Gesture: "zoom_in", Score: 0.7}
	if err := s.Recognitions().Create(rec); err != nil {
		t.Fatal(err)
	}
	if rec.RecognizedAt.IsZero() {
		t.Error("expected RecognizedAt to be set")
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, err := repo.Get("theme"); err != nil || v != "light" {
		t.Errorf("Get() = %q, %v, want light", v, err)
	}

	if !repo.GetBool(SettingPublishing, true) {
		t.Error("GetBool() should return default when unset")
	}
	if err := repo.SetBool(SettingPublishing, false); err != nil {
		t.Fatal(err)
	}
	if repo.GetBool(SettingPublishing, true) {
		t.Error("GetBool() should return stored false")
	}

	repo.Set("broken", "maybe")
	if !repo.GetBool("broken", true) {
		t.Error("GetBool() should return default for non-boolean values")
	}
}
