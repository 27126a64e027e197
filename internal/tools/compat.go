package tools

import (
	"context"
	"fmt"

	"github.com/SourceScope/source-scope-mcp/internal/compat"
	"github.com/SourceScope/source-scope-mcp/internal/fixtures"
	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handlePlatformInfo(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := compat.Detect()

	result := map[string]any{
		"platform":         info,
		"fixture_version":  fixtures.Version,
		"fixture_checksum": fmt.Sprintf("%016x", fixtures.Checksum()),
		"cache":            s.manager.CacheStats(),
	}

	p, _, err := s.manager.Profile()
	if err != nil {
		result["profile_error"] = err.Error()
	} else {
		result["profile"] = map[string]any{
			"schema_version":   p.SchemaVersion,
			"behaviors":        len(p.Behaviors),
			"adaptation_rules": p.AdaptationRules,
		}
	}

	return jsonResult(result), nil
}

func (s *Server) handleRecordProfile(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	base := getStringArg(args, "base_dir")
	if base == "" {
		base = s.cfg.EffectiveProfilesDir()
	}
	info := compat.Detect()
	path := compat.ProfilePath(base, info)

	if !getBoolArg(args, "force") {
		if p, loadErr := compat.LoadProfile(path); loadErr == nil {
			return jsonResult(map[string]any{
				"platform_key":     p.PlatformKey,
				"behaviors":        len(p.Behaviors),
				"adaptation_rules": p.AdaptationRules,
				"path":             path,
				"recorded":         false,
			}), nil
		}
	}

	p, err := compat.NewRecorder().RecordAll()
	if err != nil {
		return errResult(fmt.Sprintf("record: %v", err)), nil
	}
	if err := compat.SaveProfile(p, base, info); err != nil {
		return errResult(fmt.Sprintf("save profile: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"platform_key":     p.PlatformKey,
		"behaviors":        len(p.Behaviors),
		"adaptation_rules": p.AdaptationRules,
		"path":             path,
		"recorded":         true,
	}), nil
}

func (s *Server) handleCompatibilityReport(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	base := getStringArg(args, "base_dir")
	if base == "" {
		base = s.cfg.EffectiveProfilesDir()
	}

	report, err := compat.GenerateMatrix(base)
	if err != nil {
		return errResult(fmt.Sprintf("report: %v", err)), nil
	}
	return textResult(report), nil
}

func (s *Server) handleAdaptSQL(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	source := getStringArg(args, "source")
	if source == "" {
		return errResult("source is required"), nil
	}

	x := &sqlang.Extractor{}
	if !getBoolArg(args, "raw") {
		adapter, adapterErr := s.manager.AdapterFor()
		if adapterErr != nil {
			return errResult(fmt.Sprintf("platform adapter: %v", adapterErr)), nil
		}
		x.Adapter = adapter
	}

	els, info, err := x.ExtractSource([]byte(source))
	if err != nil {
		return errResult(fmt.Sprintf("extract: %v", err)), nil
	}

	elements := make([]map[string]any, 0, len(els))
	for _, el := range els {
		elements = append(elements, elementJSON(el))
	}

	return jsonResult(map[string]any{
		"has_parse_error": info.HasError,
		"adapted":         x.Adapter != nil,
		"count":           len(elements),
		"elements":        elements,
	}), nil
}

func (s *Server) handleListFixtures(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := fixtures.All()
	list := make([]map[string]any, 0, len(all))
	for _, fx := range all {
		m := map[string]any{
			"id":        fx.ID,
			"construct": fx.Construct,
		}
		if fx.EdgeCase {
			m["edge_case"] = true
		}
		list = append(list, m)
	}

	return jsonResult(map[string]any{
		"version":  fixtures.Version,
		"checksum": fmt.Sprintf("%016x", fixtures.Checksum()),
		"count":    len(list),
		"fixtures": list,
	}), nil
}

// elementJSON flattens an element into the tool result shape: base fields
// plus the variant's own attributes.
func elementJSON(el sqlang.Element) map[string]any {
	base := el.Base()
	m := map[string]any{
		"type":       el.Type(),
		"name":       base.Name,
		"start_line": base.StartLine,
		"end_line":   base.EndLine,
	}
	switch el := el.(type) {
	case *sqlang.Table:
		if len(el.Columns) > 0 {
			m["columns"] = el.Columns
		}
	case *sqlang.Function:
		if len(el.Parameters) > 0 {
			m["parameters"] = el.Parameters
		}
	case *sqlang.Procedure:
		if len(el.Parameters) > 0 {
			m["parameters"] = el.Parameters
		}
	case *sqlang.Trigger:
		m["table_name"] = el.TableName
		m["trigger_timing"] = el.Timing
		m["trigger_event"] = el.Event
	case *sqlang.Index:
		m["table_name"] = el.TableName
		m["unique"] = el.Unique
	}
	return m
}
