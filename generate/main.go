// Package generate asks a language model to comment a document and strips
// comments locally.
package generate

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"text/template"
	"time"

	remark "github.com/Paranoid-AF/remark"
	defaults "github.com/Paranoid-AF/remark/default"
	"github.com/Paranoid-AF/remark/strip"
)

// Engine turns remark requests into transformed documents.
type Engine struct {
	generator    *Generator // nil when no API key is configured
	results      *ResultCache
	projects     *ProjectCache
	config       *remark.Config
	customPrompt string // loaded custom prompt template (empty = use default)
}

// NewEngine creates an engine from the on-disk configuration.
func NewEngine() *Engine {
	cfg, err := remark.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = remark.DefaultConfig()
	}
	for _, w := range remark.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	customPrompt := loadCustomPrompt()
	if customPrompt == "" {
		slog.Debug("no custom prompt, using built-in default")
	}
	return NewEngineWithConfig(cfg, customPrompt)
}

// NewEngineWithConfig creates an engine from an explicit configuration.
// An empty customPrompt selects the embedded default template.
func NewEngineWithConfig(cfg *remark.Config, customPrompt string) *Engine {
	var gen *Generator
	if remark.ResolveGenerationAPIKey(cfg) != "" {
		gen = NewGenerator(cfg)
	} else {
		slog.Warn("generation API key not configured")
	}

	var results *ResultCache
	if !cfg.Cache.Disabled {
		results = NewResultCache(time.Duration(cfg.Cache.TTLMinutes) * time.Minute)
	}

	return &Engine{
		generator:    gen,
		results:      results,
		projects:     NewProjectCache(),
		config:       cfg,
		customPrompt: customPrompt,
	}
}

// loadCustomPrompt loads a custom prompt template.
// Returns empty string if no custom prompt exists.
func loadCustomPrompt() string {
	promptPath := remark.PromptPath()
	data, err := os.ReadFile(promptPath)
	if err != nil {
		return ""
	}
	slog.Info("loaded custom prompt", "path", promptPath)
	return string(data)
}

// Close releases resources held by the engine.
func (e *Engine) Close() {
	if e.results != nil {
		e.results.Close()
	}
	if e.projects != nil {
		e.projects.Close()
	}
}

// Handle dispatches a request by its action.
func (e *Engine) Handle(ctx context.Context, req *remark.Request) *remark.Response {
	switch req.Action {
	case remark.ActionStrip:
		return e.Strip(req)
	case remark.ActionGenerate:
		return e.Comment(ctx, req)
	}
	return errorResponse("invalid_request", "unknown action: "+req.Action)
}

// Strip removes comments from the request content.
func (e *Engine) Strip(req *remark.Request) *remark.Response {
	lang, errResp := resolveLanguage(req)
	if errResp != nil {
		return errResp
	}
	return &remark.Response{Content: strip.Document(lang, req.Content)}
}

// Comment asks the model to add comments to the request content.
func (e *Engine) Comment(ctx context.Context, req *remark.Request) *remark.Response {
	if e.generator == nil {
		return errorResponse("not_configured",
			"generation API key not configured; set REMARK_GENERATION_API_KEY or OPENAI_API_KEY")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errorResponse("invalid_request", "document is empty")
	}

	lang, errResp := resolveLanguage(req)
	if errResp != nil {
		return errResp
	}

	systemPrompt := e.buildSystemPrompt(lang)
	userMessage := buildUserMessage(lang, e.projects.Lookup(req.Path), req.Content)

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("prompt", "system", systemPrompt, "user",
			buildUserMessage(lang, e.projects.Lookup(req.Path), redactDocument(lang, req.Content)))
	}

	key := resultKey(e.generator.Model(), string(lang), systemPrompt, userMessage)
	if e.results != nil {
		if content, ok := e.results.Get(key); ok {
			slog.Debug("result cache hit", "path", req.Path)
			return &remark.Response{Content: content, Cached: true}
		}
	}

	// Check for cancellation before the expensive call
	if ctx.Err() != nil {
		return errorResponse("cancelled", ctx.Err().Error())
	}

	output, err := e.generator.Generate(ctx, systemPrompt, userMessage)
	if err != nil {
		slog.Error("generation error", "error", err)
		return errorResponse("api_error", err.Error())
	}

	content := cleanOutput(output, req.Content)
	if e.results != nil {
		e.results.Set(key, content)
	}
	return &remark.Response{Content: content}
}

func resolveLanguage(req *remark.Request) (strip.Language, *remark.Response) {
	lang, err := strip.ParseLanguage(req.Language)
	if err != nil {
		return "", errorResponse("invalid_request", err.Error())
	}
	if lang == "" {
		lang = strip.Detect(req.Path, req.Content)
	}
	return lang, nil
}

func errorResponse(code, message string) *remark.Response {
	return &remark.Response{Error: &remark.Error{Code: code, Message: message}}
}

// PromptData holds the data passed to the prompt template.
type PromptData struct {
	Language      string
	CommentPrefix string
}

// buildSystemPrompt renders the system prompt from the template.
func (e *Engine) buildSystemPrompt(lang strip.Language) string {
	tmplSrc := e.customPrompt
	if tmplSrc == "" {
		tmplSrc = defaults.DefaultPrompt
	}

	data := PromptData{
		Language:      lang.DisplayName(),
		CommentPrefix: lang.CommentPrefix(),
	}

	t, err := template.New("prompt").Parse(tmplSrc)
	if err != nil {
		slog.Warn("failed to parse prompt template, falling back to default", "error", err)
		t = template.Must(template.New("prompt").Parse(defaults.DefaultPrompt))
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		slog.Warn("failed to execute prompt template, falling back to default", "error", err)
		t = template.Must(template.New("prompt").Parse(defaults.DefaultPrompt))
		buf.Reset()
		t.Execute(&buf, data)
	}

	return strings.TrimRight(buf.String(), " \t\n")
}

// buildUserMessage wraps the document in the fixed commenting instruction.
func buildUserMessage(lang strip.Language, project *Project, content string) string {
	var sb strings.Builder

	if summary := project.Summary(); summary != "" {
		sb.WriteString("project: ")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Please add brief, functional comments to the following ")
	sb.WriteString(lang.DisplayName())
	sb.WriteString(" code. Do NOT include Markdown formatting (no triple backticks). ")
	sb.WriteString("Do not change the code itself in ANY WAY, only add small, necessary, and important comments for a reviewer to understand it. ")
	sb.WriteString("Do not change the code, do not change existing comments. ONLY ADD THEM WHERE NECESSARY.:\n\n")
	sb.WriteString(content)

	return sb.String()
}

// cleanOutput trims the model reply and removes a surrounding markdown fence.
// The original document's trailing newline is kept.
func cleanOutput(output, original string) string {
	out := strings.TrimSpace(output)
	if strings.HasPrefix(out, "```") {
		if nl := strings.IndexByte(out, '\n'); nl >= 0 {
			out = out[nl+1:]
		} else {
			out = ""
		}
		out = strings.TrimSuffix(strings.TrimRight(out, " \t\n"), "```")
		out = strings.TrimRight(out, " \t\n")
	}
	if strings.HasSuffix(original, "\n") && out != "" {
		out += "\n"
	}
	return out
}
