package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/SourceScope/source-scope-mcp/internal/analyze"
	"github.com/SourceScope/source-scope-mcp/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}

	res, err := s.analyzer.File(ctx, path)
	if err != nil {
		if errors.Is(err, analyze.ErrUnsupported) {
			return errResult(fmt.Sprintf("unsupported file type: %s", path)), nil
		}
		return errResult(fmt.Sprintf("analyze: %v", err)), nil
	}

	records := make([]map[string]any, 0, len(res.Records))
	for _, r := range res.Records {
		rec := map[string]any{
			"kind":       r.Kind,
			"name":       r.Name,
			"start_line": r.StartLine,
			"end_line":   r.EndLine,
		}
		if len(r.Props) > 0 {
			rec["properties"] = r.Props
		}
		records = append(records, rec)
	}

	return jsonResult(map[string]any{
		"path":            res.Path,
		"language":        res.Language,
		"content_hash":    res.Hash,
		"cached":          res.Cached,
		"has_parse_error": res.HasError,
		"count":           len(records),
		"records":         records,
	}), nil
}

func (s *Server) handleAnalyzeDirectory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}

	res, err := s.analyzer.Directory(ctx, path)
	if err != nil {
		return errResult(fmt.Sprintf("analyze: %v", err)), nil
	}

	kinds, err := s.store.CountElementsByKind()
	if err != nil {
		return errResult(fmt.Sprintf("count elements: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"root":           res.Root,
		"files_analyzed": res.Files,
		"elements":       res.Elements,
		"cached":         res.Cached,
		"failed":         res.Failed,
		"element_kinds":  kinds,
	}), nil
}

func (s *Server) handleListElements(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	rows, err := s.store.QueryElements(store.ElementFilter{
		Kind:       getStringArg(args, "kind"),
		Name:       getStringArg(args, "name"),
		PathPrefix: getStringArg(args, "path"),
		Limit:      limit,
	})
	if err != nil {
		return errResult(fmt.Sprintf("query elements: %v", err)), nil
	}

	elements := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		m := map[string]any{
			"kind":       r.Kind,
			"name":       r.Name,
			"path":       r.Path,
			"start_line": r.StartLine,
			"end_line":   r.EndLine,
		}
		if len(r.Properties) > 0 {
			m["properties"] = r.Properties
		}
		elements = append(elements, m)
	}

	return jsonResult(map[string]any{
		"count":    len(elements),
		"elements": elements,
	}), nil
}
