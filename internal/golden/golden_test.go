package golden

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gdma.dev/reg"
)

func TestCompareTrace(t *testing.T) {
	ops := []reg.Op{
		{Write: true, Addr: 0x6003f044, Val: 0x1},
		{Addr: 0x6003f044, Val: 0x1},
		{Write: true, Addr: 0x6003f044, Val: 0x0},
	}
	path := filepath.Join(t.TempDir(), "trace.golden")
	if err := CompareTrace(path, true, ops); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "W 0x6003f044 0x00000001\nW 0x6003f044 0x00000000\n"; string(b) != want {
		t.Errorf("golden file:\n%s\nwant:\n%s", b, want)
	}
	if err := CompareTrace(path, false, ops); err != nil {
		t.Errorf("unchanged trace: %v", err)
	}
	ops[2].Val = 0x8
	err = CompareTrace(path, false, ops)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("changed trace: %v", err)
	}
	if err := CompareTrace(path, false, ops[:1]); err == nil {
		t.Error("truncated trace matched")
	}
}

func TestDecodeTrace(t *testing.T) {
	lines, err := decodeTrace([]byte("# bring-up\n\nW 0x1 0x2\n"))
	if err != nil || len(lines) != 1 {
		t.Errorf("decodeTrace = %q, %v", lines, err)
	}
	if _, err := decodeTrace([]byte("R 0x1 0x2\n")); err == nil {
		t.Error("accepted a load in a golden trace")
	}
}
