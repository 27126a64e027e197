package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/SourceScope/source-scope-mcp/internal/compat"
	"github.com/SourceScope/source-scope-mcp/internal/config"
)

func runRecord(args []string) int {
	var base string
	force := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--base":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--base requires a directory")
				return 2
			}
			i++
			base = args[i]
		case "--force":
			force = true
		case "--help", "-h":
			fmt.Println("usage: source-scope-mcp record [--base DIR] [--force]")
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

	info := compat.Detect()
	path := compat.ProfilePath(base, info)

	if !force {
		if p, err := compat.LoadProfile(path); err == nil {
			fmt.Printf("profile already recorded for %s: %d behaviors, rules: %s\n",
				p.PlatformKey, len(p.Behaviors), ruleList(p.AdaptationRules))
			fmt.Println("use --force to re-record")
			return 0
		}
	}

	p, err := compat.NewRecorder().RecordAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "record: %v\n", err)
		return 1
	}
	if err := compat.SaveProfile(p, base, info); err != nil {
		fmt.Fprintf(os.Stderr, "save profile: %v\n", err)
		return 1
	}

	fmt.Printf("recorded %s: %d behaviors, rules: %s\n",
		p.PlatformKey, len(p.Behaviors), ruleList(p.AdaptationRules))
	fmt.Println(path)
	return 0
}

func ruleList(rules []string) string {
	if len(rules) == 0 {
		return "(none)"
	}
	return strings.Join(rules, ", ")
}
