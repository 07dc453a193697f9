package conformance

import (
	"fmt"
	"strings"

	bvm "github.com/cpp20120/BVM"
	"github.com/cpp20120/BVM/vm"
)

// Result is the outcome of running one Case.
type Result struct {
	Case    LoadedCase
	Passed  bool
	Skipped bool
	Message string
}

// Run compiles and executes a single case's Source against a fresh
// BufferHost, comparing stdout or the expected fault substring.
func Run(lc LoadedCase) Result {
	if lc.Case.Skip {
		return Result{Case: lc, Skipped: true}
	}

	code, err := bvm.Compile(lc.Case.Source)
	if err != nil {
		return checkFault(lc, err)
	}

	host := vm.NewBufferHost(lc.Case.Input)
	m := vm.New(code, host, 0)
	if err := m.Run(); err != nil {
		return checkFault(lc, err)
	}

	if lc.Case.ExpectFault != "" {
		return Result{Case: lc, Passed: false, Message: "expected fault containing " + lc.Case.ExpectFault + ", got none"}
	}

	if !equalLines(host.Lines, lc.Case.ExpectStdout) {
		return Result{
			Case:    lc,
			Passed:  false,
			Message: fmt.Sprintf("stdout mismatch: got %v, want %v", host.Lines, lc.Case.ExpectStdout),
		}
	}
	return Result{Case: lc, Passed: true}
}

func checkFault(lc LoadedCase, err error) Result {
	if lc.Case.ExpectFault == "" {
		return Result{Case: lc, Passed: false, Message: "unexpected error: " + err.Error()}
	}
	if !strings.Contains(err.Error(), lc.Case.ExpectFault) {
		return Result{Case: lc, Passed: false, Message: fmt.Sprintf("error %q does not contain %q", err.Error(), lc.Case.ExpectFault)}
	}
	return Result{Case: lc, Passed: true}
}

func equalLines(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
