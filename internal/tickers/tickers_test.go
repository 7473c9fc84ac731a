package tickers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTickerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickers.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTickerFile(t, `# TSE watchlist
7203.T
6758.T

  9984.T
# disabled
#8306.T
`)
	symbols, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"7203.T", "6758.T", "9984.T"}
	if len(symbols) != len(want) {
		t.Fatalf("got %d symbols, want %d: %v", len(symbols), len(want), symbols)
	}
	for i, s := range want {
		if symbols[i] != s {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], s)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing ticker list")
	}
}

func TestLoad_OnlyComments(t *testing.T) {
	path := writeTickerFile(t, "# nothing enabled\n\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for a ticker list with no symbols")
	}
}
