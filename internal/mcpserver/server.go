// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Themekit authoring tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/railspress/themekit/internal/themeservice"
)

// Server wraps the MCP server with Themekit tools.
type Server struct {
	mcp *server.MCPServer
	svc *themeservice.Service
}

// New creates a new MCP server with all Themekit tools registered.
func New(svc *themeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Themekit",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_theme_files",
		mcp.WithDescription("List every draft file of a theme with version and checksum."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
	), s.listThemeFiles)

	s.mcp.AddTool(mcp.NewTool("read_theme_file",
		mcp.WithDescription("Read the latest draft content of a theme file."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative file path (e.g. sections/hero.html)")),
	), s.readThemeFile)

	s.mcp.AddTool(mcp.NewTool("save_theme_file",
		mcp.WithDescription("Save a draft theme file as a new version. Template documents "+
			"(templates/*.json) MUST follow the canonical format. Read the contract first via "+
			"the get_template_contract tool or the themekit://template-format resource. "+
			"Nothing a visitor sees changes until publish_theme is called."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative file path")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full file content")),
		mcp.WithString("summary", mcp.Description("Optional change summary recorded in history")),
	), s.saveThemeFile)

	s.mcp.AddTool(mcp.NewTool("update_section",
		mcp.WithDescription("Replace the settings of a section in a template document."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template name (e.g. index)")),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section id")),
		mcp.WithString("settings", mcp.Required(), mcp.Description("Settings as a JSON object string")),
	), s.updateSection)

	s.mcp.AddTool(mcp.NewTool("publish_theme",
		mcp.WithDescription("Freeze the theme's draft into an immutable snapshot and make it live."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
	), s.publishTheme)

	s.mcp.AddTool(mcp.NewTool("preview_template",
		mcp.WithDescription("Render a template from draft state and return the HTML plus any per-section errors."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme id")),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template name")),
	), s.previewTemplate)

	s.mcp.AddTool(mcp.NewTool("get_template_contract",
		mcp.WithDescription("Returns the canonical template document contract. "+
			"Call this before creating or updating template documents."),
	), s.getTemplateContract)

	// Resource: template document contract.
	s.mcp.AddResource(
		mcp.NewResource("themekit://template-format", "Template Document Contract",
			mcp.WithResourceDescription("Canonical template document format and section source rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

const mcpAuthor = "mcp-agent"

func (s *Server) listThemeFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	infos, err := s.svc.ListFiles(ctx, theme)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(infos) == 0 {
		return mcp.NewToolResultText("no draft files"), nil
	}
	var sb strings.Builder
	for _, fi := range infos {
		fmt.Fprintf(&sb, "%s (%s) v%d %s\n", fi.Path, fi.Type, fi.Version, fi.Checksum[:12])
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) readThemeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetFile(ctx, theme, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) saveThemeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary := ""
	if v, err := req.RequireString("summary"); err == nil {
		summary = v
	}

	v, warnings, err := s.svc.SaveFile(ctx, theme, path, []byte(content), mcpAuthor, summary)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("saved %s as version %d", v.Path, v.Version)
	if len(warnings) > 0 {
		msg += "\nwarnings:\n- " + strings.Join(warnings, "\n- ")
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) updateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateName, err := req.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sectionID, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settingsJSON, err := req.RequireString("settings")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var settings map[string]any
	if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("settings is not a JSON object: %v", err)), nil
	}

	doc, warnings, err := s.svc.UpdateSection(ctx, theme, templateName, sectionID, settings, mcpAuthor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	msg := string(out)
	if len(warnings) > 0 {
		msg += "\nwarnings:\n- " + strings.Join(warnings, "\n- ")
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) publishTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.Publish(ctx, theme, mcpAuthor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("published snapshot %d with %d files", snap.Number, len(snap.Files))), nil
}

func (s *Server) previewTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateName, err := req.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.PreviewTemplate(ctx, theme, templateName, map[string]any{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := res.HTML
	if len(res.SectionErrors) > 0 {
		var sb strings.Builder
		sb.WriteString("\n\nsection errors:\n")
		for _, se := range res.SectionErrors {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", se.SectionID, se.SectionType, se.Message)
		}
		msg += sb.String()
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) getTemplateContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TemplateFormatContract), nil
}

func (s *Server) readTemplateFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "themekit://template-format",
			MIMEType: "text/markdown",
			Text:     TemplateFormatContract,
		},
	}, nil
}
