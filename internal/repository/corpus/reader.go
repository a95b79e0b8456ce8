// Package corpus reads the tagged description file: one "<isbn13> <description>" record per line.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds a single record; long blurbs exceed bufio's 64 KiB default.
const maxLineBytes = 1 << 20

// ReadFile reads records from path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open descriptions %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read splits r into trimmed, non-blank lines, preserving order.
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		records = append(records, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan descriptions: %w", err)
	}
	return records, nil
}
