package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "weather", "sketches/weather/weather.ino", "Arduino Uno")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("empty project ID")
	}
	if !filepath.IsAbs(created.SketchPath) {
		t.Errorf("SketchPath not absolute: %q", created.SketchPath)
	}

	got, err := s.Get(ctx, "weather")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || got.Board != "Arduino Uno" {
		t.Errorf("Get = %+v", got)
	}

	if err := s.Delete(ctx, "weather"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "weather"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "weather"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDuplicateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "blink", "a.ino", "Arduino Uno"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "blink", "b.ino", "Arduino Nano"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestListOrdersByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.Create(ctx, name, name+".ino", "Arduino Uno"); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(list) != len(want) {
		t.Fatalf("len = %d", len(list))
	}
	for i, p := range list {
		if p.Name != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestSetBoard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "servo", "servo.ino", "Arduino Uno"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoard(ctx, "servo", "Arduino Mega"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "servo")
	if err != nil {
		t.Fatal(err)
	}
	if got.Board != "Arduino Mega" {
		t.Errorf("Board = %q", got.Board)
	}
	if err := s.SetBoard(ctx, "missing", "Arduino Uno"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "blink", "blink.ino", "Arduino Uno"); err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	runs := []RunRecord{
		{State: "failure", Attempts: 5, Duration: 42 * time.Second, CreatedAt: base.Add(-2 * time.Minute)},
		{State: "success", Attempts: 2, Duration: 11 * time.Second, CreatedAt: base},
	}
	for _, rec := range runs {
		if err := s.RecordRun(ctx, "blink", rec); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := s.History(ctx, "blink", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("len = %d", len(hist))
	}
	// Newest first.
	if hist[0].State != "success" || hist[1].State != "failure" {
		t.Errorf("order = %q, %q", hist[0].State, hist[1].State)
	}
	if hist[0].Duration != 11*time.Second {
		t.Errorf("Duration = %v", hist[0].Duration)
	}

	if err := s.RecordRun(ctx, "missing", RunRecord{State: "success"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindBySketchPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "thermo", "sketches/thermo/thermo.ino", "Arduino Nano")
	if err != nil {
		t.Fatal(err)
	}

	// Lookup works with the same relative path the project was created from.
	got, err := s.FindBySketchPath(ctx, "sketches/thermo/thermo.ino")
	if err != nil {
		t.Fatalf("FindBySketchPath() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("found project %q, want %q", got.ID, created.ID)
	}

	_, err = s.FindBySketchPath(ctx, "sketches/unknown/unknown.ino")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBySketchPath(unknown) error = %v, want ErrNotFound", err)
	}
}
