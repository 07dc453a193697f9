// Package conformance loads YAML-described end-to-end BASIC programs
// and their expected behavior, so new scenarios can be added as data
// instead of Go test functions.
package conformance

// Suite is a complete YAML test file: a named group of Cases sharing
// a description.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// Case is a single end-to-end program plus its expected observable
// behavior.
type Case struct {
	Name string `yaml:"name"`
	// Source is the BASIC-family program text to compile and run.
	Source string `yaml:"source"`
	// Input feeds INPUT statements, one line per element.
	Input []string `yaml:"input,omitempty"`
	// ExpectStdout is the exact sequence of PRINT lines expected.
	ExpectStdout []string `yaml:"expect_stdout,omitempty"`
	// ExpectFault, when non-empty, is a substring expected somewhere
	// in the error returned by compiling or running Source; in that
	// case ExpectStdout is not checked.
	ExpectFault string `yaml:"expect_fault,omitempty"`
	Skip        bool   `yaml:"skip,omitempty"`
}
