// Package ui serves a browser playground: paste a grammar and an input,
// get back every parse tree as text and as a Graphviz graph.
package ui

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dhamidi/earley/earley"
	"github.com/dhamidi/earley/format"
	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"
)

//go:embed static templates
var embeddedFS embed.FS

var log = commonlog.GetLogger("earley.ui")

// Options bound the work a single request may cause.
type Options struct {
	Limit    int
	MaxSteps int
	Timeout  time.Duration
}

type Server struct {
	opts       Options
	staticFS   fs.FS
	templateFS fs.FS
	mux        *http.ServeMux
}

func NewServer(opts Options) (*Server, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	staticFS := overlayFS("ui/static", mustSub(embeddedFS, "static"))
	templateFS := overlayFS("ui/templates", mustSub(embeddedFS, "templates"))

	if _, err := template.ParseFS(templateFS, "*.html"); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		opts:       opts,
		staticFS:   staticFS,
		templateFS: templateFS,
		mux:        http.NewServeMux(),
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.mux.HandleFunc("POST /api/parse", s.handleAPIParse)
	s.mux.HandleFunc("POST /parse", s.handleParse)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.ParseFS(s.templateFS, "*.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	tmpl.ExecuteTemplate(w, name, data)
}

// ParseRequest is the body of POST /api/parse. Lexicon holds EBNF token
// definitions for the "ebnf" tokenizer.
type ParseRequest struct {
	Grammar   string `json:"grammar"`
	Input     string `json:"input"`
	Tokenizer string `json:"tokenizer,omitempty"`
	Lexicon   string `json:"lexicon,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ParseResponse struct {
	Accepted bool     `json:"accepted"`
	Trees    []string `json:"trees"`
	Text     string   `json:"text,omitempty"`
	DOT      string   `json:"dot,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type indexData struct {
	Request  ParseRequest
	Response *ParseResponse
	Status   int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", indexData{Request: ParseRequest{
		Grammar: "EXP\nEXP -> EXP + EXP\nEXP -> n\n",
		Input:   "n+n+n",
	}})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data: "+err.Error(), http.StatusBadRequest)
		return
	}
	req := ParseRequest{
		Grammar:   r.FormValue("grammar"),
		Input:     r.FormValue("input"),
		Tokenizer: r.FormValue("tokenizer"),
		Lexicon:   r.FormValue("lexicon"),
	}
	if limit := r.FormValue("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, "invalid limit: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Limit = n
	}

	resp, status := s.parse(r.Context(), req)
	w.WriteHeader(status)
	s.render(w, "index.html", indexData{Request: req, Response: resp, Status: status})
}

func (s *Server) handleAPIParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, status := s.parse(r.Context(), req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// parse runs one request. Malformed grammars and input the tokenizer cannot
// split are client errors; an exhausted budget still returns the trees
// found before it.
func (s *Server) parse(ctx context.Context, req ParseRequest) (*ParseResponse, int) {
	resp := &ParseResponse{Trees: []string{}}

	g, err := grammar.ParseString(req.Grammar)
	if err != nil {
		resp.Error = err.Error()
		return resp, http.StatusBadRequest
	}

	var lexicon ebnf.Grammar
	if req.Tokenizer == lex.EBNFTokenizer {
		lexicon, err = ebnf.Parse("lexicon", strings.NewReader(req.Lexicon))
		if err != nil {
			resp.Error = err.Error()
			return resp, http.StatusBadRequest
		}
	}
	tokenize, err := lex.NewTokenizer(req.Tokenizer, lexicon)
	if err != nil {
		resp.Error = err.Error()
		return resp, http.StatusBadRequest
	}
	tokens, err := tokenize(req.Input)
	if err != nil {
		resp.Error = err.Error()
		return resp, http.StatusBadRequest
	}

	limit := s.opts.Limit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	opts := []earley.Option{earley.WithMaxSteps(s.opts.MaxSteps)}
	chart, err := earley.Recognize(ctx, g, tokens, opts...)
	if err != nil {
		resp.Error = err.Error()
		return resp, http.StatusOK
	}
	resp.Accepted = chart.Accepted()

	trees, err := earley.NewForest(chart, opts...).Collect(ctx, limit)
	if err != nil {
		if !errors.Is(err, earley.ErrNonTermination) {
			log.Errorf("parse: %v", err)
		}
		resp.Error = err.Error()
	}
	for _, tree := range trees {
		resp.Trees = append(resp.Trees, tree.String())
	}

	var text, dot bytes.Buffer
	format.NewTextEncoder(&text, false).Encode(trees)
	format.NewDOTEncoder(&dot).Encode(trees)
	resp.Text = text.String()
	resp.DOT = dot.String()

	return resp, http.StatusOK
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// overlayFSType serves files from a directory on disk when present, so
// templates can be edited without rebuilding, and falls back to the
// embedded copy.
type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlayFSType) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)

	if rd, ok := o.secondary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	if rd, ok := o.primary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}
