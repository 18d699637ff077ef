// Package golden compares register access traces against golden
// files.
package golden

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gdma.dev/reg"
)

// CompareTrace compares the stores in ops with the golden file at
// path, or rewrites the file if update is set.
func CompareTrace(path string, update bool, ops []reg.Op) error {
	got := encodeTrace(ops)
	if update {
		return os.WriteFile(path, []byte(strings.Join(got, "\n")+"\n"), 0o640)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	want, err := decodeTrace(b)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mismatches := 0
	first := -1
	for i := range min(len(got), len(want)) {
		if got[i] != want[i] {
			mismatches++
			if first == -1 {
				first = i
			}
		}
	}
	if mismatches > 0 || len(got) != len(want) {
		msg := fmt.Sprintf("trace lengths %d, %d, with %d/%d mismatches", len(got), len(want), mismatches, len(want))
		if first != -1 {
			msg += fmt.Sprintf("; first at line %d: got %q, want %q", first+1, got[first], want[first])
		}
		return fmt.Errorf("%s: %s", path, msg)
	}
	return nil
}

func encodeTrace(ops []reg.Op) []string {
	var lines []string
	for _, op := range ops {
		if op.Write {
			lines = append(lines, op.String())
		}
	}
	return lines
}

func decodeTrace(b []byte) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if !strings.HasPrefix(l, "W ") {
			return nil, fmt.Errorf("malformed trace line %q", l)
		}
		lines = append(lines, l)
	}
	return lines, s.Err()
}
