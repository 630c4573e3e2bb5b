package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/features/run"
	"docqa/internal/document"
	"docqa/internal/llm"
	"docqa/internal/middleware"
	"docqa/internal/resolver"
	"docqa/internal/retrieval"
	"docqa/internal/text"
	"docqa/internal/vector"
)

const DefaultModelTimeout = 30 * time.Second

var errEmptyModelResponse = errors.New("empty response")

type Resolver interface {
	Resolve(ctx context.Context, ref string) (*resolver.Fetched, error)
}

type Extractor interface {
	Extract(ctx context.Context, format document.Format, content []byte) (string, error)
}

// Recorder persists the outcome of a request. It must not block for long and
// handles its own failures.
type Recorder interface {
	Record(ctx context.Context, r run.Run)
}

type Service struct {
	resolver     Resolver
	extractor    Extractor
	search       *retrieval.Service
	generator    llm.Generator
	recorder     Recorder
	modelTimeout time.Duration
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithModelTimeout bounds every language model call, including time spent
// waiting on the rate limiter.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) { s.modelTimeout = d }
}

func NewService(res Resolver, ext Extractor, search *retrieval.Service, gen llm.Generator, opts ...Option) *Service {
	s := &Service{
		resolver:     res,
		extractor:    ext,
		search:       search,
		generator:    gen,
		modelTimeout: DefaultModelTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the whole pipeline for one request. The returned error is
// always a *StageError; per-question model failures are reported in the
// answers instead.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	ctx = middleware.WithDocument(ctx, req.Documents)
	start := time.Now()
	record := run.Run{
		Document:      req.Documents,
		Questions:     len(req.Questions),
		CorrelationID: middleware.GetCorrelationID(ctx),
	}

	content, format, err := s.load(ctx, req.Documents)
	record.Format = string(format)
	if err != nil {
		s.fail(ctx, &record, start, err)
		return nil, err
	}

	ix, chunks := s.index(ctx, content)
	record.ChunkCount = chunks

	answers := s.answerIndex(ctx, ix, req.Questions)

	resp := &Response{Answers: make([]string, len(answers))}
	for i, a := range answers {
		resp.Answers[i] = a.Text
		switch a.Outcome {
		case OutcomeAnswered:
			record.Answered++
		case OutcomeNoMatch:
			record.NoMatch++
		case OutcomeModelError:
			record.ModelErrors++
		}
	}

	record.Stage = string(StageDone)
	record.DurationMs = time.Since(start).Milliseconds()
	slog.InfoContext(ctx, "pipeline stage", "stage", StageDone,
		"answered", record.Answered, "no_match", record.NoMatch, "model_errors", record.ModelErrors,
		"duration_ms", record.DurationMs)
	s.record(ctx, record)

	return resp, nil
}

// AnswerAll chunks and indexes documentText once, then answers every
// question against that index, in order. It never fails as a whole.
func (s *Service) AnswerAll(ctx context.Context, documentText string, questions []string) []Answer {
	ix, _ := s.index(ctx, documentText)
	return s.answerIndex(ctx, ix, questions)
}

// Search ranks the chunks of a document against query and returns up to
// limit excerpts.
func (s *Service) Search(ctx context.Context, ref, query string, limit int) ([]retrieval.SearchResult, error) {
	ctx = middleware.WithDocument(ctx, ref)

	content, _, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	ix, _ := s.index(ctx, content)
	return s.search.Search(ctx, ix, query, limit), nil
}

// load resolves and extracts a document. The fetched resource is released
// before load returns, whatever the outcome.
func (s *Service) load(ctx context.Context, ref string) (content string, format document.Format, err error) {
	slog.InfoContext(ctx, "pipeline stage", "stage", StageResolving)
	doc, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", document.FormatUnknown, &StageError{Stage: StageResolving, Err: err}
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			slog.WarnContext(ctx, "failed to release fetched document", "path", doc.Path, "error", cerr)
		}
	}()

	slog.InfoContext(ctx, "pipeline stage", "stage", StageExtracting, "format", doc.Format, "remote", doc.Remote)
	raw, err := doc.Content()
	if err != nil {
		return "", doc.Format, &StageError{Stage: StageExtracting, Err: fmt.Errorf("%w: read: %v", document.ErrExtraction, err)}
	}

	content, err = s.extractor.Extract(ctx, doc.Format, raw)
	if err != nil {
		return "", doc.Format, &StageError{Stage: StageExtracting, Err: err}
	}
	return content, doc.Format, nil
}

// index chunks content and builds its index. A vectorisation failure is
// logged and yields the empty index.
func (s *Service) index(ctx context.Context, content string) (*vector.Index, int) {
	chunks := text.ChunkText(content)
	slog.InfoContext(ctx, "pipeline stage", "stage", StageIndexing, "chunks", len(chunks))

	ix, err := vector.Build(chunks)
	if err != nil {
		slog.WarnContext(ctx, "indexing failed, using empty index", "chunks", len(chunks), "error", err)
		return vector.Empty(), len(chunks)
	}
	return ix, len(chunks)
}

func (s *Service) answerIndex(ctx context.Context, ix retrieval.Ranker, questions []string) []Answer {
	slog.InfoContext(ctx, "pipeline stage", "stage", StageAnswering, "questions", len(questions))

	answers := make([]Answer, len(questions))
	for i, q := range questions {
		answers[i] = s.answerOne(ctx, ix, q)
	}
	return answers
}

func (s *Service) answerOne(ctx context.Context, ix retrieval.Ranker, question string) Answer {
	results := s.search.Search(ctx, ix, question, 1)
	if len(results) == 0 {
		return Answer{Text: NoExcerptAnswer, Outcome: OutcomeNoMatch, ChunkIndex: -1}
	}
	best := results[0]

	out, err := s.generate(ctx, BuildPrompt(best.Content, question))
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = errEmptyModelResponse
		}
	}
	if err != nil {
		slog.WarnContext(ctx, "language model call failed", "chunk_index", best.ChunkIndex, "error", err)
		return Answer{
			Text:       modelErrorPrefix + err.Error(),
			Outcome:    OutcomeModelError,
			ChunkIndex: best.ChunkIndex,
			Score:      best.Score,
			Err:        fmt.Errorf("%w: %w", document.ErrModel, err),
		}
	}

	return Answer{Text: out, Outcome: OutcomeAnswered, ChunkIndex: best.ChunkIndex, Score: best.Score}
}

// generate calls the model under the per-call timeout. It returns once the
// deadline passes even if the generator ignores its context.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		t, err := s.generator.Generate(callCtx, prompt)
		done <- result{text: t, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-callCtx.Done():
		return "", fmt.Errorf("model call timed out after %s: %w", s.modelTimeout, callCtx.Err())
	}
}

func (s *Service) fail(ctx context.Context, record *run.Run, start time.Time, err error) {
	var se *StageError
	if errors.As(err, &se) {
		record.FailedStage = string(se.Stage)
	}
	record.Stage = string(StageFailed)
	record.ErrorCode, _ = ErrorCode(err)
	record.Error = err.Error()
	record.DurationMs = time.Since(start).Milliseconds()

	slog.ErrorContext(ctx, "pipeline stage", "stage", StageFailed, "failed_stage", record.FailedStage,
		"code", record.ErrorCode, "error", err)
	s.record(ctx, *record)
}

func (s *Service) record(ctx context.Context, r run.Run) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, r)
}
