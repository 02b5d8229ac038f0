package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
	"github.com/mj1618/locator-cli/internal/telemetry"
)

// resultText serializes v to YAML for an MCP response.
func resultText(v interface{}) *mcp.CallToolResult {
	text, err := output.Marshal(v, output.FormatYAML)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(text)
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// parseAttributes decodes captured attributes. YAML is a superset of JSON,
// so one decoder serves both.
func parseAttributes(s string) (model.CapturedAttributes, error) {
	var attrs model.CapturedAttributes
	if strings.TrimSpace(s) == "" {
		return attrs, errors.New("attributes are empty")
	}
	if err := yaml.Unmarshal([]byte(s), &attrs); err != nil {
		return attrs, fmt.Errorf("parse attributes: %w", err)
	}
	return attrs, nil
}

func targetParams(params map[string]interface{}) target.Target {
	return target.Target{
		SnapshotYAML: StringParam(params, "snapshot", ""),
		Snapshot:     StringParam(params, "snapshot-file", ""),
		URL:          StringParam(params, "url", ""),
		ControlURL:   StringParam(params, "control-url", ""),
		Tree:         StringParam(params, "tree", ""),
		App:          StringParam(params, "app", ""),
		Window:       StringParam(params, "window", ""),
	}
}

func (s *Server) handleExtract(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	attrs, err := parseAttributes(StringParam(request.GetArguments(), "attributes", ""))
	if err != nil {
		return toolError(err), nil
	}
	return resultText(s.svc.Extract(attrs)), nil
}

func (s *Server) handleCapture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := StringParam(params, "name", "")
	var platform model.Platform
	if p := StringParam(params, "platform", ""); p != "" {
		parsed, err := model.ParsePlatform(p)
		if err != nil {
			return toolError(err), nil
		}
		platform = parsed
	}

	if raw := StringParam(params, "attributes", ""); raw != "" {
		attrs, err := parseAttributes(raw)
		if err != nil {
			return toolError(err), nil
		}
		res, err := s.svc.Capture(ctx, platform, name, attrs)
		if err != nil {
			return toolError(err), nil
		}
		return resultText(res), nil
	}

	desc := StringParam(params, "locator", "")
	if desc == "" {
		return mcp.NewToolResultError("either attributes or locator is required"), nil
	}
	loc, err := locator.ParseDescriptor(desc)
	if err != nil {
		return toolError(err), nil
	}
	opened, err := s.open(ctx, targetParams(params))
	if err != nil {
		return toolError(err), nil
	}
	defer opened.Close()
	if platform == "" {
		platform = opened.Platform
	}
	res, err := s.svc.CaptureLocator(ctx, platform, name, opened.Accessor, loc)
	if err != nil {
		return toolError(err), nil
	}
	return resultText(res), nil
}

func (s *Server) handleListObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	var platform model.Platform
	if p := StringParam(params, "platform", ""); p != "" {
		parsed, err := model.ParsePlatform(p)
		if err != nil {
			return toolError(err), nil
		}
		platform = parsed
	}
	objects, err := s.svc.Objects(ctx, platform, StringParam(params, "tag", ""))
	if err != nil {
		return toolError(err), nil
	}
	return resultText(service.Summaries(objects)), nil
}

func (s *Server) handleGetObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	obj, err := s.svc.Repo.Get(ctx, StringParam(request.GetArguments(), "id", ""))
	if err != nil {
		return toolError(err), nil
	}
	return resultText(obj), nil
}

func (s *Server) handleDeleteObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := StringParam(request.GetArguments(), "id", "")
	if err := s.svc.Repo.Delete(ctx, id); err != nil {
		return toolError(err), nil
	}
	return resultText(map[string]interface{}{"ok": true, "deleted": id}), nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	ids := StringListParam(params, "id")
	if len(ids) == 0 {
		return mcp.NewToolResultError("id is required"), nil
	}
	heal := BoolParam(params, "heal", true)

	opened, err := s.open(ctx, targetParams(params))
	if err != nil {
		return toolError(err), nil
	}
	defer opened.Close()

	results, err := s.svc.ResolveMany(ctx, ids, opened.Accessor, heal)
	if err != nil {
		return toolError(err), nil
	}
	out := make([]service.ResolveResult, len(results))
	for i, res := range results {
		out[i] = service.NewResolveResult(ids[i], res)
		if !res.Success {
			log.Warn().Str("id", ids[i]).Msg("object not resolved")
		}
	}
	if len(out) == 1 {
		return resultText(out[0]), nil
	}
	return resultText(out), nil
}

func (s *Server) handleHealingStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Telemetry.Statistics(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return resultText(stats), nil
}

func (s *Server) handleSuggestUpdates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	suggestions, err := s.svc.Suggest(ctx, IntParam(request.GetArguments(), "min-frequency", 0))
	if err != nil {
		return toolError(err), nil
	}
	return resultText(suggestions), nil
}

func (s *Server) handleApplySuggestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := StringParam(params, "id", "")
	sug, chain, err := s.svc.ApplyForObject(ctx, id, IntParam(params, "min-frequency", 0))
	if err != nil {
		return toolError(err), nil
	}
	return resultText(service.AppliedSuggestion{ID: id, Applied: *sug, Chain: chain}), nil
}

func (s *Server) handleExportLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := StringParam(request.GetArguments(), "format", telemetry.FormatJSON)
	var buf bytes.Buffer
	if err := s.svc.Telemetry.ExportLog(ctx, &buf, format); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
