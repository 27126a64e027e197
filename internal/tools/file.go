package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Limits on what read_file hands back: whole files beyond this size must be
// read in line ranges, and very long lines are truncated.
const (
	maxReadFileBytes = 500 * 1024
	maxLineChars     = 500
)

func (s *Server) handleReadFile(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}
	startLine := getIntArg(args, "start_line", 0)
	endLine := getIntArg(args, "end_line", 0)

	abs, err := filepath.Abs(path)
	if err != nil {
		return errResult(fmt.Sprintf("resolve path: %v", err)), nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		return errResult(fmt.Sprintf("file not found: %s", abs)), nil
	}
	if info.IsDir() {
		return errResult("path is a directory, use list_directory instead"), nil
	}
	if info.Size() > maxReadFileBytes {
		return errResult(fmt.Sprintf("file too large (%d bytes, max %dKB); use start_line/end_line to read a portion",
			info.Size(), maxReadFileBytes/1024)), nil
	}

	lines, total, err := readLines(abs, startLine, endLine)
	if err != nil {
		return errResult(fmt.Sprintf("read: %v", err)), nil
	}

	result := map[string]any{
		"path":        abs,
		"total_lines": total,
		"content":     strings.Join(lines, "\n"),
	}
	if startLine > 0 || endLine > 0 {
		result["range"] = fmt.Sprintf("%d-%d", startLine, endLine)
	}
	return jsonResult(result), nil
}

// readLines returns the numbered lines of a file within [startLine, endLine]
// (zero bounds mean unbounded) plus the count of lines visited.
func readLines(path string, startLine, endLine int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if startLine > 0 && n < startLine {
			continue
		}
		if endLine > 0 && n > endLine {
			break
		}
		line := scanner.Text()
		if len(line) > maxLineChars {
			line = line[:maxLineChars] + "..."
		}
		lines = append(lines, fmt.Sprintf("%4d | %s", n, line))
	}
	return lines, n, scanner.Err()
}

type dirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

func (s *Server) handleListDirectory(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return errResult(fmt.Sprintf("resolve path: %v", err)), nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		return errResult(fmt.Sprintf("path not found: %s", abs)), nil
	}
	if !info.IsDir() {
		return errResult("path is a file, use read_file instead"), nil
	}

	var entries []dirEntry
	if pattern := getStringArg(args, "pattern"); pattern != "" {
		entries, err = globEntries(abs, pattern)
	} else {
		entries, err = listEntries(abs)
	}
	if err != nil {
		return errResult(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"directory": abs,
		"count":     len(entries),
		"entries":   entries,
	}), nil
}

func globEntries(dir, pattern string) ([]dirEntry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	var entries []dirEntry
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		rel, _ := filepath.Rel(dir, m)
		e := dirEntry{Name: rel, Path: m, IsDir: fi.IsDir()}
		if !fi.IsDir() {
			e.Size = fi.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// listEntries lists a directory's visible entries; dotfiles are skipped.
func listEntries(dir string) ([]dirEntry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var entries []dirEntry
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		e := dirEntry{Name: de.Name(), Path: filepath.Join(dir, de.Name()), IsDir: de.IsDir()}
		if !de.IsDir() {
			e.Size = fi.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}
