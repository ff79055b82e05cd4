// Package lsp is a language server for grammar files in the textual
// format read by grammar.Parse. It reports load errors and unreachable
// nonterminals as diagnostics and completes nonterminal names.
package lsp

import (
	"errors"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/earley/grammar"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "earley"

var log = commonlog.GetLogger("earley.lsp")

type Server struct {
	handler protocol.Handler
	server  *server.Server
	version string

	mu   sync.Mutex
	docs map[string]string
}

func NewServer(version string) *Server {
	ls := &Server{
		version: version,
		docs:    make(map[string]string),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(ctx, params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, *params.Text)
	}
	return nil
}

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	ls.mu.Lock()
	text, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return Complete(text, params.Position), nil
}

func (ls *Server) update(ctx *glsp.Context, uri, text string) {
	ls.mu.Lock()
	ls.docs[uri] = text
	ls.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: Diagnose(uriToPath(uri), text),
	})
}

// Diagnose loads text as a grammar. A load error becomes a single error
// diagnostic on its line; a grammar that loads gets a warning for every
// nonterminal the start symbol cannot reach. The result is never nil, so
// publishing it clears earlier diagnostics.
func Diagnose(name, text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	g, err := grammar.Parse(name, strings.NewReader(text))
	if err != nil {
		msg := err.Error()
		line := 0
		var gerr *grammar.Error
		if errors.As(err, &gerr) {
			msg = gerr.Msg
			if gerr.Line > 0 {
				line = gerr.Line - 1
			}
		}
		log.Debugf("%s: %v", name, err)
		return append(diagnostics, diagnostic(text, line, protocol.DiagnosticSeverityError, msg))
	}

	defs := definitions(text)
	for _, name := range g.Unreachable() {
		diagnostics = append(diagnostics, diagnostic(text, defs[name], protocol.DiagnosticSeverityWarning,
			"nonterminal "+name+" is unreachable from the start symbol"))
	}
	return diagnostics
}

func diagnostic(text string, line int, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := lsName
	end := 0
	if lines := strings.Split(text, "\n"); line < len(lines) {
		end = len([]rune(lines[line]))
	}
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line)},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// definitions maps each left-hand side to the 0-based line of its first
// rule. It works on text that does not load.
func definitions(text string) map[string]int {
	defs := make(map[string]int)
	for i, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != grammar.Arrow {
			continue
		}
		if _, ok := defs[fields[0]]; !ok {
			defs[fields[0]] = i
		}
	}
	return defs
}

// Complete offers the arrow right after a lone left-hand side, and the
// defined nonterminals everywhere else.
func Complete(text string, pos protocol.Position) []protocol.CompletionItem {
	lines := strings.Split(text, "\n")
	prefix := ""
	if int(pos.Line) < len(lines) {
		line := []rune(lines[pos.Line])
		prefix = string(line[:min(int(pos.Character), len(line))])
	}
	fields := strings.Fields(prefix)
	atWordEnd := prefix != "" && !strings.HasSuffix(prefix, " ") && !strings.HasSuffix(prefix, "\t")

	var items []protocol.CompletionItem
	if len(fields) == 1 && !atWordEnd {
		kind := protocol.CompletionItemKindKeyword
		items = append(items, protocol.CompletionItem{Label: grammar.Arrow, Kind: &kind})
	}

	defs := definitions(text)
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return defs[names[i]] < defs[names[j]] })
	for _, name := range names {
		kind := protocol.CompletionItemKindClass
		detail := "nonterminal"
		items = append(items, protocol.CompletionItem{Label: name, Kind: &kind, Detail: &detail})
	}
	return items
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return uri
		}
		return filepath.Clean(parsed.Path)
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
