package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"docqa/features/answer"
	"docqa/internal/middleware"
	"docqa/internal/retrieval"
)

const (
	DefaultSearchLimit = 3
	MaxSearchLimit     = 20
)

// Pipeline is the document question answering surface exposed as tools.
type Pipeline interface {
	Run(ctx context.Context, req answer.Request) (*answer.Response, error)
	Search(ctx context.Context, ref, query string, limit int) ([]retrieval.SearchResult, error)
}

type Handler struct {
	pipeline Pipeline
}

func NewHandler(p Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// JSON-RPC Request types
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type AnswerArgs struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type SearchArgs struct {
	Documents string `json:"documents"`
	Query     string `json:"query"`
	Limit     *int   `json:"limit,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// JSON-RPC Response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

var tools = []Tool{
	{
		Name: "docqa_answer",
		Description: `Answers questions about one document (PDF, DOCX or EML), given as a local path or an http(s) URL.
Each question is answered from the single most relevant excerpt of the document. Answers come back in question order.

USAGE EXAMPLE:
docqa_answer(documents="https://example.com/policy.pdf", questions=["What is the grace period?"])`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"documents": map[string]string{
					"type":        "string",
					"description": "Local path or http(s) URL of the document",
				},
				"questions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]string{"type": "string"},
					"description": "Questions to answer, in order",
				},
			},
			"required": []string{"documents", "questions"},
		},
	},
	{
		Name: "docqa_search",
		Description: `Ranks the paragraphs of one document against a query by TF-IDF cosine similarity and returns the best excerpts with their scores.
Use this to inspect which part of a document a question would be grounded on.

USAGE EXAMPLE:
docqa_search(documents="/data/policy.docx", query="waiting period", limit=5)`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"documents": map[string]string{
					"type":        "string",
					"description": "Local path or http(s) URL of the document",
				},
				"query": map[string]string{
					"type":        "string",
					"description": "The search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max excerpts to return (default 3).",
					"minimum":     1,
					"maximum":     MaxSearchLimit,
				},
			},
			"required": []string{"documents", "query"},
		},
	},
}

// processRequest processes the JSON-RPC request and returns a response.
// Returns nil if no response should be sent (e.g. for notifications).
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "docqa-mcp",
					"version": "1.0.0",
				},
			},
		}
	case "notifications/initialized":
		// Notifications must not generate a response
		return nil
	case "ping":
		return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}}
	case "tools/list":
		return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: ListToolsResult{Tools: tools}}
	case "tools/call":
		return h.callTool(ctx, req)
	}

	slog.WarnContext(ctx, "unknown jsonrpc method", "method", req.Method)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found")
	return &resp
}

func (h *Handler) callTool(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid params")
		return &resp
	}

	slog.InfoContext(ctx, "tool execution started", "tool", params.Name)

	switch params.Name {
	case "docqa_answer":
		var args AnswerArgs
		if err := json.Unmarshal(params.Arguments, &args); err != nil || strings.TrimSpace(args.Documents) == "" || len(args.Questions) == 0 {
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "documents and questions are required")
			return &resp
		}

		out, err := h.pipeline.Run(ctx, answer.Request{Documents: args.Documents, Questions: args.Questions})
		if err != nil {
			return toolError(req.ID, err)
		}

		var b strings.Builder
		for i, q := range args.Questions {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, q, i+1, out.Answers[i])
		}

		slog.InfoContext(ctx, "tool execution completed", "tool", params.Name, "answers", len(out.Answers))
		return toolText(req.ID, strings.TrimSpace(b.String()))

	case "docqa_search":
		var args SearchArgs
		if err := json.Unmarshal(params.Arguments, &args); err != nil || strings.TrimSpace(args.Documents) == "" || strings.TrimSpace(args.Query) == "" {
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "documents and query are required")
			return &resp
		}

		limit := DefaultSearchLimit
		if args.Limit != nil {
			limit = *args.Limit
		}
		if limit < 1 || limit > MaxSearchLimit {
			resp := makeErrorResponse(req.ID, ErrInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxSearchLimit))
			return &resp
		}

		results, err := h.pipeline.Search(ctx, args.Documents, args.Query, limit)
		if err != nil {
			return toolError(req.ID, err)
		}

		var textResult string
		if len(results) == 0 {
			textResult = "No relevant excerpt found."
		} else {
			var b strings.Builder
			for i, res := range results {
				fmt.Fprintf(&b, "Result %d (Score: %.4f, Chunk: %d):\n%s\n\n---\n", i+1, res.Score, res.ChunkIndex, res.Content)
			}
			textResult = b.String()
		}

		slog.InfoContext(ctx, "tool execution completed", "tool", params.Name, "result_count", len(results))
		return toolText(req.ID, textResult)
	}

	slog.WarnContext(ctx, "method not found", "method", params.Name)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found: "+params.Name)
	return &resp
}

func toolText(id interface{}, text string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  ToolResult{Content: []ToolContent{{Type: "text", Text: text}}},
	}
}

// toolError reports a pipeline failure as a tool result so the calling
// model can read it.
func toolError(id interface{}, err error) *JSONRPCResponse {
	code, _ := answer.ErrorCode(err)
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: code + ": " + err.Error()}},
			IsError: true,
		},
	}
}

func makeErrorResponse(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.InfoContext(ctx, "mcp request received", "method", r.Method, "path", r.URL.Path, "correlation_id", middleware.GetCorrelationID(ctx))

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrParse, "Parse error")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.writeError(w, req.ID, ErrInvalidRequest, "Invalid Request")
		return
	}

	resp := h.processRequest(ctx, req)
	if resp == nil {
		// Notification, just return OK
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// JSON-RPC errors travel as HTTP 200 with an error object.
func (h *Handler) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	resp := makeErrorResponse(id, code, message)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
