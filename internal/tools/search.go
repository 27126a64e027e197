package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type codeMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func (s *Server) handleSearchCode(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	pattern := getStringArg(args, "pattern")
	if pattern == "" {
		return errResult("pattern is required"), nil
	}

	language := getStringArg(args, "language")
	maxResults := getIntArg(args, "max_results", 50)
	if maxResults > 200 {
		maxResults = 200
	}

	isRegex := getBoolArg(args, "regex")
	var re *regexp.Regexp
	if isRegex {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return errResult(fmt.Sprintf("invalid regex: %v", err)), nil
		}
	}

	files, err := s.store.Files()
	if err != nil {
		return errResult(fmt.Sprintf("list files: %v", err)), nil
	}

	var paths []string
	for _, f := range files {
		if language != "" && f.Language != language {
			continue
		}
		paths = append(paths, f.Path)
	}

	var matches []codeMatch
	for _, path := range paths {
		if len(matches) >= maxResults {
			break
		}
		matches = append(matches, searchFile(path, pattern, re, isRegex, maxResults-len(matches))...)
	}

	return jsonResult(map[string]any{
		"pattern":     pattern,
		"total":       len(matches),
		"truncated":   len(matches) >= maxResults,
		"matches":     matches,
		"files_count": len(paths),
	}), nil
}

func searchFile(path, pattern string, re *regexp.Regexp, isRegex bool, limit int) []codeMatch {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var matches []codeMatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		var found bool
		if isRegex {
			found = re.MatchString(line)
		} else {
			found = strings.Contains(line, pattern)
		}

		if found {
			content := strings.TrimSpace(line)
			if len(content) > 200 {
				content = content[:200] + "..."
			}
			matches = append(matches, codeMatch{
				File:    path,
				Line:    lineNum,
				Content: content,
			})
			if len(matches) >= limit {
				break
			}
		}
	}

	return matches
}
