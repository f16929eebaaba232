package mounts

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestMounts(t *testing.T) {

	embedded := fstest.MapFS{
		"sql/schema.sql":    {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"sql/facts.sql":     {Data: []byte("SELECT 1;")},
		"other/ignored.txt": {Data: []byte("x")},
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.sql"), []byte("-- disk"), 0644); err != nil {
		t.Fatal(err)
	}
	notDir := filepath.Join(dir, "schema.sql")

	tests := []struct {
		name        string
		mountName   string
		dirPath     string
		wantFiles   []string
		wantSource  string
		wantErr     string
		wantInvalid bool
	}{
		{
			name:       "embedded fs mount",
			mountName:  "sql",
			wantFiles:  []string{"facts.sql", "schema.sql"},
			wantSource: "embedded",
		},
		{
			name:       "directory fs mount",
			mountName:  "sql",
			dirPath:    dir,
			wantFiles:  []string{"schema.sql"},
			wantSource: dir,
		},
		{
			name:      "directory fs mount fail",
			mountName: "sql",
			dirPath:   filepath.Join(dir, "doesNotExist"),
			wantErr:   "new mount at",
		},
		{
			name:      "directory is a file",
			mountName: "sql",
			dirPath:   notDir,
			wantErr:   "not a directory",
		},
		{
			name:        "invalid mount name",
			mountName:   "/dev/null",
			wantInvalid: true,
		},
		{
			name:        "trailing slash mount name",
			mountName:   "sql/",
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := NewFileMount(tt.mountName, embedded, tt.dirPath)
			if tt.wantInvalid {
				var eip ErrInvalidPath
				if !errors.As(err, &eip) {
					t.Fatalf("expected ErrInvalidPath error, got %v", err)
				}
				return
			}
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got none", tt.wantErr)
				}
				if got, want := err.Error(), tt.wantErr; !strings.Contains(got, want) {
					t.Errorf("error got %q want substring %q", got, want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}

			files, err := fm.Files()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantFiles, files); diff != "" {
				t.Errorf("files mismatch (-want +got):\n%s", diff)
			}
			if got, want := fm.Source(), tt.wantSource; got != want {
				t.Errorf("got source %q want %q", got, want)
			}
			if _, err := fs.Stat(fm, "schema.sql"); err != nil {
				t.Errorf("schema.sql not at the mount root: %v", err)
			}
		})
	}
}
