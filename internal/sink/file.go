// Package sink writes scan output: the transaction-hash list and the scan
// checkpoint used by --resume.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// WriteTxHashes writes one identifier per line to path, replacing any
// previous content. An empty list produces an empty file.
func WriteTxHashes(path string, hashes []string) error {
	return WriteLines(path, hashes)
}

// WriteLines atomically replaces path with lines joined by newlines.
func WriteLines(path string, lines []string) error {
	data := strings.Join(lines, "\n")
	if err := writeFileAtomic(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadTxHashes reads a file written by WriteTxHashes.
func ReadTxHashes(path string) ([]string, error) {
	return ReadLines(path)
}

// ReadLines reads a file written by WriteLines. Blank lines are ignored.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
