package db

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ptrTime(ti time.Time) *time.Time { return &ti }

func ptrStr(s string) *string { return &s }

func date(d, h, mi int) time.Time {
	return time.Date(2015, 12, d, h, mi, 0, 0, time.UTC)
}

// setupTestDB sets up a test database in a temporary directory, using the sql
// files on disk.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	testDB, err := NewConnection(dbPath, os.DirFS("sql"), nil)
	if err != nil {
		t.Fatalf("test database opening error: %v", err)
	}
	testDB.location = time.UTC

	t.Cleanup(func() {
		if err := testDB.Close(); err != nil {
			t.Errorf("unexpected db close error: %v", err)
		}
	})
	return testDB
}

func TestNewConnection(t *testing.T) {

	t.Run("embedded sql", func(t *testing.T) {
		sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
		if err != nil {
			t.Fatal(err)
		}
		dbPath := filepath.Join(t.TempDir(), "embedded.db")
		db, err := NewConnection(dbPath, sqlFS, nil)
		if err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		// Reopening runs the schema again.
		db, err = NewConnection(dbPath, sqlFS, nil)
		if err != nil {
			t.Fatalf("reopen error: %v", err)
		}
		_ = db.Close()
	})

	t.Run("memory without shared cache", func(t *testing.T) {
		_, err := NewConnection("file::memory:", os.DirFS("sql"), nil)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing sql files", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")
		_, err := NewConnection(dbPath, os.DirFS(t.TempDir()), nil)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected not exist error, got %v", err)
		}
	})
}

func TestSaveAndListFacts(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()

	saved := []Fact{
		{
			Activity: "coding",
			Category: ptrStr("work"),
			Tags:     []string{"go", "cli"},
			Start:    date(12, 9, 0),
			End:      ptrTime(date(12, 12, 30)),
		},
		{
			Activity:    "reading",
			Description: "Der Hamster",
			Start:       date(12, 13, 0),
			End:         ptrTime(date(12, 14, 0)),
		},
		{
			Activity: "coding",
			Category: ptrStr("work"),
			Start:    date(13, 10, 0),
			End:      ptrTime(date(13, 11, 0)),
		},
	}
	for i, f := range saved {
		got, err := db.SaveFact(ctx, f)
		if err != nil {
			t.Fatalf("save %d error: %v", i, err)
		}
		if got.ID == 0 {
			t.Errorf("save %d: no id", i)
		}
		saved[i].ID = got.ID
	}

	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		term string
		want []Fact
	}{
		{
			name: "all",
			want: saved,
		},
		{
			name: "one day",
			from: ptrTime(date(12, 0, 0)),
			to:   ptrTime(time.Date(2015, 12, 12, 23, 59, 59, 0, time.UTC)),
			want: saved[:2],
		},
		{
			name: "overlapping start",
			from: ptrTime(date(12, 12, 0)),
			to:   ptrTime(date(12, 13, 0)),
			want: saved[:2],
		},
		{
			name: "search without match",
			term: "CODE",
			want: nil,
		},
		{
			name: "search activity ignoring case",
			term: "CODI",
			want: []Fact{saved[0], saved[2]},
		},
		{
			name: "search category",
			term: "WoRk",
			want: []Fact{saved[0], saved[2]},
		},
		{
			name: "search description",
			term: "hamster",
			want: saved[1:2],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Facts(ctx, tt.from, tt.to, tt.term)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("facts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestActivitiesAndCategories(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()

	for _, f := range []Fact{
		{Activity: "coding", Category: ptrStr("work"), Start: date(12, 9, 0), End: ptrTime(date(12, 10, 0))},
		{Activity: "coding", Category: ptrStr("work"), Start: date(12, 10, 0), End: ptrTime(date(12, 11, 0))},
		{Activity: "coding", Start: date(12, 11, 0), End: ptrTime(date(12, 12, 0))},
		{Activity: "coding", Start: date(12, 12, 0), End: ptrTime(date(12, 13, 0))},
		{Activity: "Écrire", Category: ptrStr("home"), Start: date(12, 13, 0), End: ptrTime(date(12, 14, 0))},
	} {
		if _, err := db.SaveFact(ctx, f); err != nil {
			t.Fatal(err)
		}
	}

	activities, err := db.Activities(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	type activity struct {
		Name     string
		Category *string
	}
	var got []activity
	for _, a := range activities {
		got = append(got, activity{a.Name, a.Category()})
	}
	want := []activity{
		{"coding", nil},
		{"coding", ptrStr("work")},
		{"Écrire", ptrStr("home")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}

	activities, err = db.Activities(ctx, "écr")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(activities), 1; got != want {
		t.Errorf("got %d activities want %d", got, want)
	}

	categories, err := db.Categories(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range categories {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"home", "work"}, names); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	categories, err = db.Categories(ctx, "OR")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(categories), 1; got != want {
		t.Errorf("got %d categories want %d", got, want)
	}
}

func TestOngoingFact(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.OngoingFact(ctx); !errors.Is(err, ErrNoOngoingFact) {
		t.Fatalf("expected ErrNoOngoingFact, got %v", err)
	}
	if _, err := db.StopOngoingFact(ctx, date(12, 10, 0)); !errors.Is(err, ErrNoOngoingFact) {
		t.Fatalf("expected ErrNoOngoingFact on stop, got %v", err)
	}
	if _, err := db.CancelOngoingFact(ctx); !errors.Is(err, ErrNoOngoingFact) {
		t.Fatalf("expected ErrNoOngoingFact on cancel, got %v", err)
	}

	ongoing := Fact{Activity: "coding", Category: ptrStr("work"), Start: date(12, 9, 0)}
	saved, err := db.SaveFact(ctx, ongoing)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.SaveFact(ctx, Fact{Activity: "reading", Start: date(12, 10, 0)}); !errors.Is(err, ErrOngoingFactExists) {
		t.Fatalf("expected ErrOngoingFactExists, got %v", err)
	}

	got, err := db.OngoingFact(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Errorf("ongoing mismatch (-want +got):\n%s", diff)
	}

	// An ongoing fact overlaps any later timeframe.
	facts, err := db.Facts(ctx, ptrTime(date(20, 0, 0)), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(facts), 1; got != want {
		t.Errorf("got %d facts want %d", got, want)
	}

	if _, err := db.StopOngoingFact(ctx, date(12, 8, 0)); !errors.Is(err, ErrFactEndBeforeStart) {
		t.Fatalf("expected ErrFactEndBeforeStart, got %v", err)
	}

	stopped, err := db.StopOngoingFact(ctx, date(12, 11, 0))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ptrTime(date(12, 11, 0)), stopped.End); diff != "" {
		t.Errorf("end mismatch (-want +got):\n%s", diff)
	}
	if _, err := db.OngoingFact(ctx); !errors.Is(err, ErrNoOngoingFact) {
		t.Fatalf("expected no ongoing fact after stop, got %v", err)
	}
}

func TestCancelOngoingFact(t *testing.T) {

	db := setupTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveFact(ctx, Fact{Activity: "coding", Tags: []string{"x"}, Start: date(12, 9, 0)})
	if err != nil {
		t.Fatal(err)
	}
	cancelled, err := db.CancelOngoingFact(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cancelled.ID, saved.ID; got != want {
		t.Errorf("got id %d want %d", got, want)
	}
	facts, err := db.Facts(ctx, nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(facts), 0; got != want {
		t.Errorf("got %d facts want %d", got, want)
	}
}

func TestFactRules(t *testing.T) {

	db := setupTestDB(t)
	db.SetFactMinDelta(time.Minute)
	ctx := context.Background()

	_, err := db.SaveFact(ctx, Fact{Activity: "a", Start: date(12, 9, 0), End: ptrTime(date(12, 8, 0))})
	if !errors.Is(err, ErrFactEndBeforeStart) {
		t.Errorf("expected ErrFactEndBeforeStart, got %v", err)
	}

	short := date(12, 9, 0).Add(30 * time.Second)
	_, err = db.SaveFact(ctx, Fact{Activity: "a", Start: date(12, 9, 0), End: &short})
	if !errors.Is(err, ErrFactTooShort) {
		t.Errorf("expected ErrFactTooShort, got %v", err)
	}

	if _, err := db.SaveFact(ctx, Fact{Activity: "a", Start: date(12, 9, 0), End: ptrTime(date(12, 9, 1))}); err != nil {
		t.Errorf("unexpected error at minimum length: %v", err)
	}

	// Stopping is subject to the same minimum length.
	if _, err := db.SaveFact(ctx, Fact{Activity: "a", Start: date(12, 10, 0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.StopOngoingFact(ctx, date(12, 10, 0)); !errors.Is(err, ErrFactTooShort) {
		t.Errorf("expected ErrFactTooShort on stop, got %v", err)
	}
}

func TestFactDuration(t *testing.T) {
	f := Fact{Start: date(12, 9, 0)}
	if got, want := f.Duration(date(12, 10, 30)), 90*time.Minute; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	f.End = ptrTime(date(12, 9, 15))
	if got, want := f.Duration(date(12, 10, 30)), 15*time.Minute; got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestActivitiesColumns(t *testing.T) {

	db := setupTestDB(t)

	var got []string
	err := db.SelectContext(context.Background(), &got, `SELECT name FROM pragma_table_info('activities') ORDER BY cid`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"id", "name", "category_id"}, got); diff != "" {
		t.Errorf("activities columns mismatch (-want +got):\n%s", diff)
	}
}
