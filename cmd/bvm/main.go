package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cpp20120/BVM/internal/config"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  bvm <file.bpl>")
	fmt.Println("  bvm run [--trace] <file.bpl>")
	fmt.Println("  bvm            (drops into a REPL)")
	os.Exit(1)
}

func main() {
	cwd, _ := os.Getwd()
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		if err := runREPL(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	trace := false
	var filename string

	if args[0] == "run" {
		rest := args[1:]
		for _, a := range rest {
			if a == "--trace" {
				trace = true
				continue
			}
			filename = a
		}
	} else {
		filename = args[0]
	}

	if filename == "" {
		usage()
	}
	if !strings.HasSuffix(filename, ".bpl") {
		fmt.Fprintf(os.Stderr, "Error: expected a .bpl file, got %q\n", filename)
		os.Exit(1)
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
		os.Exit(1)
	}

	if err := runFile(cfg, filename, string(src), trace); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
