// Package tickers loads the instrument universe from a newline-delimited
// ticker list file.
package tickers

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads ticker symbols from path, one per line. Blank lines and lines
// starting with '#' are skipped. A missing file is an error; the entry
// point decides whether that is fatal.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticker list: %w", err)
	}
	defer f.Close()

	var symbols []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ticker list: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("ticker list %s contains no symbols", path)
	}
	return symbols, nil
}
