package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"backlog/internal/ipc"
)

func TestFeatureState(t *testing.T) {
	cases := []struct {
		name    string
		feature ipc.Feature
		want    string
	}{
		{"passing", ipc.Feature{Passes: true}, "passing"},
		{"in progress", ipc.Feature{InProgress: true}, "in progress"},
		{"failing", ipc.Feature{FailureCount: 2}, "failing (2)"},
		{"pending", ipc.Feature{}, "pending"},
	}
	for _, tc := range cases {
		if got := featureState(tc.feature); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDisplayCategory(t *testing.T) {
	if got := displayCategory("user_auth"); got != "User Auth" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 48); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncate(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q", got)
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if _, err := parseID("0"); err == nil {
		t.Fatal("expected error for zero id")
	}
	id, err := parseID(" 12 ")
	if err != nil || id != 12 {
		t.Fatalf("got %d, %v", id, err)
	}
}

func TestBuildFeatureRows(t *testing.T) {
	rows := buildFeatureRows([]ipc.Feature{
		{ID: 3, Priority: 1, Category: "core", Name: "login", Passes: true},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row[0] != "3" || row[1] != "1" || row[2] != "Core" || row[3] != "login" || row[4] != "passing" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestReadDrafts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.json")
	contents := `[{"category":"core","name":"login","description":"login flow","steps":["a","b"]}]`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	drafts, err := readDrafts(&cobra.Command{}, path)
	if err != nil {
		t.Fatalf("readDrafts failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Name != "login" || len(drafts[0].Steps) != 2 {
		t.Fatalf("unexpected drafts: %#v", drafts)
	}

	if _, err := readDrafts(&cobra.Command{}, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
