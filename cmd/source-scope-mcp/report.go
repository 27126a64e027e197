package main

import (
	"fmt"
	"os"

	"github.com/SourceScope/source-scope-mcp/internal/compat"
	"github.com/SourceScope/source-scope-mcp/internal/config"
)

func runReport(args []string) int {
	var base, out string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--base":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--base requires a directory")
				return 2
			}
			i++
			base = args[i]
		case "--out":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--out requires a file")
				return 2
			}
			i++
			out = args[i]
		case "--help", "-h":
			fmt.Println("usage: source-scope-mcp report [--base DIR] [--out FILE]")
			return 0
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			return 2
		}
	}

	cfg := config.Load()
	setupLogging(cfg)
	if base == "" {
		base = cfg.EffectiveProfilesDir()
	}

	report, err := compat.GenerateMatrix(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		return 1
	}

	if out == "" {
		fmt.Print(report)
		return 0
	}
	if err := os.WriteFile(out, []byte(report), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		return 1
	}
	fmt.Printf("wrote %s\n", out)
	return 0
}
