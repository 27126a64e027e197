package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SourceScope/source-scope-mcp/internal/config"
	"github.com/SourceScope/source-scope-mcp/internal/watcher"
)

func runWatch(args []string) int {
	var root string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			fmt.Println("usage: source-scope-mcp watch <path>")
			return 0
		default:
			if root != "" {
				fmt.Fprintln(os.Stderr, "watch takes a single path")
				return 2
			}
			root = args[i]
		}
	}
	if root == "" {
		fmt.Fprintln(os.Stderr, "usage: source-scope-mcp watch <path>")
		return 2
	}

	cfg := config.Load()
	setupLogging(cfg)

	an, st, err := openAnalyzer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := an.Directory(ctx, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}
	fmt.Printf("%s: %d files, %d elements — watching for changes\n",
		res.Root, res.Files, res.Elements)

	w := watcher.New(root, func(ctx context.Context, root string) error {
		_, err := an.Directory(ctx, root)
		return err
	})
	w.Run(ctx)
	return 0
}
