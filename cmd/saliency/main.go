// Package main provides the saliency command.
//
// Usage:
//
//	saliency explain -config explain.yaml
//	saliency version
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "saliency %s\n", version)
		return 0
	case "explain":
		if err := runExplain(args[1:], stderr); err != nil {
			fmt.Fprintf(stderr, "saliency: %v\n", err)
			return 1
		}
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "saliency: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "saliency - Guided Backpropagation saliency maps")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  explain    Compute saliency maps (-config explain.yaml)")
	fmt.Fprintln(w, "  version    Show version")
}
