// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Service provides the tafsir operations exposed as MCP tools.
type Service interface {
	GetPassage(ctx context.Context, req service.PassageRequest) (service.PassageResult, error)
	SearchTopic(ctx context.Context, req service.SearchRequest) (service.SearchResult, error)
	Reflect(ctx context.Context, req service.ReflectRequest) (service.ReflectResult, error)
	Translate(ctx context.Context, req service.TranslateRequest) (service.TranslateResult, error)
}

// Server wraps the MCP server with tafsir tools.
type Server struct {
	mcpServer *server.MCPServer
	tafsir    Service
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(tafsir Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		tafsir: tafsir,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"tafsir",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

const languageDescription = "Target language: ar (source), en, ur, fr or de. Defaults to ar."

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("get_passage",
		mcp.WithDescription("Get the tafsir commentary covering one ayah, optionally translated"),
		mcp.WithString("author", mcp.Required(), mcp.Description("Tafsir author slug, e.g. ibn-katheer")),
		mcp.WithNumber("surah", mcp.Required(), mcp.Description("Surah number, 1 to 114")),
		mcp.WithNumber("ayah", mcp.Required(), mcp.Description("Ayah number within the surah")),
		mcp.WithString("language", mcp.Description(languageDescription)),
	), s.handleGetPassage)

	mcpServer.AddTool(mcp.NewTool("search_topic",
		mcp.WithDescription("Find tafsir passages about a topic by semantic similarity. The query may be in any supported language."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text topic, e.g. patience in hardship")),
		mcp.WithString("query_language", mcp.Description("Language the query is written in; detected when omitted")),
		mcp.WithNumber("top_k", mcp.Description("Number of results to return (default: 3, max: 10)")),
		mcp.WithString("author", mcp.Description("Restrict to one tafsir author")),
		mcp.WithNumber("surah", mcp.Description("Restrict to one surah")),
		mcp.WithString("language", mcp.Description(languageDescription)),
	), s.handleSearchTopic)

	mcpServer.AddTool(mcp.NewTool("reflect",
		mcp.WithDescription("Write a spiritual reflection on the commentary for an inclusive ayah range"),
		mcp.WithString("author", mcp.Required(), mcp.Description("Tafsir author slug")),
		mcp.WithNumber("surah", mcp.Required(), mcp.Description("Surah number, 1 to 114")),
		mcp.WithNumber("from_ayah", mcp.Required(), mcp.Description("First ayah of the range")),
		mcp.WithNumber("to_ayah", mcp.Required(), mcp.Description("Last ayah of the range")),
		mcp.WithString("language", mcp.Description(languageDescription)),
	), s.handleReflect)

	mcpServer.AddTool(mcp.NewTool("translate",
		mcp.WithDescription("Translate free text into a supported language"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to translate")),
		mcp.WithString("language", mcp.Required(), mcp.Description(languageDescription)),
	), s.handleTranslate)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(PassageURITemplate, "passage",
			mcp.WithTemplateDescription("Arabic tafsir commentary covering one ayah"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePassageResource,
	)
}

type passageResult struct {
	URI       string  `json:"uri"`
	Author    string  `json:"author"`
	Surah     int     `json:"surah"`
	AyahStart int     `json:"ayah_start"`
	AyahEnd   int     `json:"ayah_end"`
	Language  string  `json:"language"`
	Text      string  `json:"text"`
	Score     float64 `json:"score,omitempty"`

	TranslatedText string `json:"translated_text,omitempty"`
}

type searchResult struct {
	Query       string          `json:"query"`
	SourceQuery string          `json:"source_query"`
	Language    string          `json:"language"`
	Results     []passageResult `json:"results"`
}

func newPassageResult(p passage.Passage, lang, text string) passageResult {
	return passageResult{
		URI:       NewPassageURI(p.Author(), p.Surah(), p.Ayahs().Start()).String(),
		Author:    p.Author(),
		Surah:     p.Surah(),
		AyahStart: p.Ayahs().Start(),
		AyahEnd:   p.Ayahs().End(),
		Language:  lang,
		Text:      text,
	}
}

func (s *Server) handleGetPassage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	author, err := request.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError("author is required"), nil
	}
	surah, err := request.RequireInt("surah")
	if err != nil {
		return mcp.NewToolResultError("surah is required"), nil
	}
	ayah, err := request.RequireInt("ayah")
	if err != nil {
		return mcp.NewToolResultError("ayah is required"), nil
	}

	res, err := s.tafsir.GetPassage(ctx, service.PassageRequest{
		Author:   author,
		Surah:    surah,
		Ayah:     ayah,
		Language: request.GetString("language", ""),
	})
	if err != nil {
		return s.toolError(ctx, "get_passage", err), nil
	}
	return jsonResult(newPassageResult(res.Passage, res.Language.String(), res.Text))
}

func (s *Server) handleSearchTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	res, err := s.tafsir.SearchTopic(ctx, service.SearchRequest{
		Query:         query,
		QueryLanguage: request.GetString("query_language", ""),
		TopK:          request.GetInt("top_k", 0),
		Author:        request.GetString("author", ""),
		Surah:         request.GetInt("surah", 0),
		Language:      request.GetString("language", ""),
	})
	if err != nil {
		return s.toolError(ctx, "search_topic", err), nil
	}

	results := make([]passageResult, len(res.Hits))
	for i, hit := range res.Hits {
		results[i] = newPassageResult(hit.Passage, language.Source.String(), hit.Text)
		results[i].Score = hit.Score
		results[i].TranslatedText = hit.TranslatedText
	}
	return jsonResult(searchResult{
		Query:       res.Query,
		SourceQuery: res.SourceQuery,
		Language:    res.Language.String(),
		Results:     results,
	})
}

func (s *Server) handleReflect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	author, err := request.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError("author is required"), nil
	}
	surah, err := request.RequireInt("surah")
	if err != nil {
		return mcp.NewToolResultError("surah is required"), nil
	}
	from, err := request.RequireInt("from_ayah")
	if err != nil {
		return mcp.NewToolResultError("from_ayah is required"), nil
	}
	to, err := request.RequireInt("to_ayah")
	if err != nil {
		return mcp.NewToolResultError("to_ayah is required"), nil
	}

	res, err := s.tafsir.Reflect(ctx, service.ReflectRequest{
		Author:   author,
		Surah:    surah,
		FromAyah: from,
		ToAyah:   to,
		Language: request.GetString("language", ""),
	})
	if err != nil {
		return s.toolError(ctx, "reflect", err), nil
	}

	type reflectionResult struct {
		Author   string   `json:"author"`
		Surah    int      `json:"surah"`
		FromAyah int      `json:"from_ayah"`
		ToAyah   int      `json:"to_ayah"`
		Language string   `json:"language"`
		Text     string   `json:"text"`
		Sources  []string `json:"sources"`
	}
	sources := make([]string, len(res.Passages))
	for i, p := range res.Passages {
		sources[i] = NewPassageURI(p.Author(), p.Surah(), p.Ayahs().Start()).String()
	}
	return jsonResult(reflectionResult{
		Author:   res.Author,
		Surah:    res.Surah,
		FromAyah: res.FromAyah,
		ToAyah:   res.ToAyah,
		Language: res.Language.String(),
		Text:     res.Text,
		Sources:  sources,
	})
}

func (s *Server) handleTranslate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}
	lang, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("language is required"), nil
	}

	res, err := s.tafsir.Translate(ctx, service.TranslateRequest{Text: text, Language: lang})
	if err != nil {
		return s.toolError(ctx, "translate", err), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}

// handlePassageResource serves tafsir://author/surah/ayah resources.
func (s *Server) handlePassageResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParsePassageURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	res, err := s.tafsir.GetPassage(ctx, service.PassageRequest{
		Author:   uri.Author(),
		Surah:    uri.Surah(),
		Ayah:     uri.Ayah(),
		Language: uri.Language(),
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", request.Params.URI, err)
	}

	b, err := json.Marshal(newPassageResult(res.Passage, res.Language.String(), res.Text))
	if err != nil {
		return nil, fmt.Errorf("marshal passage: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func (s *Server) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	s.logger.ErrorContext(ctx, "tool failed", slog.String("tool", tool), slog.Any("error", err))
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
