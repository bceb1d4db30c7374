package universe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads the universe file: one symbol per line, `#` comments and blank
// lines ignored, duplicates dropped while preserving order. A missing file
// is a fatal configuration error for the caller.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("universe file %s: %w", path, err)
	}
	defer f.Close()

	var (
		out  []string
		seen = map[string]struct{}{}
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read universe file %s: %w", path, err)
	}
	return out, nil
}

// Write replaces the universe file, creating parent directories as needed.
func Write(path string, symbols []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create universe dir: %w", err)
	}

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write universe file %s: %w", path, err)
	}
	return nil
}

// BaseSymbol strips the exchange suffix from a universe symbol:
// "RELIANCE.NS" -> "RELIANCE". Bulk exchange datasets key on the base symbol.
func BaseSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	return s
}

// Chunk splits symbols into provider-sized batches.
func Chunk(symbols []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[i:end])
	}
	return out
}
