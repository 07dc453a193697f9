package conformance

import (
	"path/filepath"
	"runtime"
	"testing"
)

// testdataDir locates testdata/programs relative to this source file,
// so the suite runs the same way regardless of the working directory
// `go test` was invoked from.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "programs")
}

func TestConformanceSuite(t *testing.T) {
	cases, err := LoadDir(testdataDir(t))
	if err != nil {
		t.Fatalf("LoadDir: unexpected error: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no conformance cases loaded")
	}

	for _, lc := range cases {
		lc := lc
		t.Run(lc.File+"/"+lc.Case.Name, func(t *testing.T) {
			result := Run(lc)
			if result.Skipped {
				t.Skip("case marked skip")
			}
			if !result.Passed {
				t.Errorf("%s", result.Message)
			}
		})
	}
}
