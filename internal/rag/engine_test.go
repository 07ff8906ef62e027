package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanyoungYoo/my-chatbot/internal/knowledge"
	"github.com/DanyoungYoo/my-chatbot/internal/log"
)

// keywordEmbedder maps texts to axis vectors by topic keyword, so retrieval
// results are predictable. It counts calls and can fail the first N requests
// to simulate an unreachable embedding service.
type keywordEmbedder struct {
	mu           sync.Mutex
	batchCalls   int // requests embedding more than one text (corpus batches)
	queryCalls   int
	failuresLeft int
}

func (*keywordEmbedder) Name() string { return "test/keyword-embedder" }
func (*keywordEmbedder) Register(_ api.Registry) {}

func (k *keywordEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.failuresLeft > 0 {
		k.failuresLeft--
		return nil, errors.New("connection refused")
	}

	if len(req.Input) > 1 {
		k.batchCalls++
	} else {
		k.queryCalls++
	}

	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		embeddings[i] = &ai.Embedding{Embedding: keywordVector(docText(doc))}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func (k *keywordEmbedder) counts() (batch, query int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.batchCalls, k.queryCalls
}

func keywordVector(text string) []float32 {
	switch {
	case strings.Contains(text, "수수료"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "마감"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func docText(doc *ai.Document) string {
	var sb strings.Builder
	for _, p := range doc.Content {
		if p.Kind == ai.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// stubCompleter returns a fixed response, or an error when set.
type stubCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// writeTestCorpus writes a small corpus where each line becomes its own chunk.
func writeTestCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.txt")
	content := strings.Join([]string{
		"수수료는 총액의 0~20% 사이에서 설정 가능합니다.",
		"마감 기한은 최소 1일부터 최대 14일까지입니다.",
		"주문 제작 상품과 신선 식품은 환불이 불가합니다.",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(corpusPath string) Config {
	return Config{
		CorpusPath:      corpusPath,
		ChunkSize:       40,
		ChunkOverlap:    0,
		TopK:            1,
		EmbedTimeout:    5 * time.Second,
		CompleteTimeout: 5 * time.Second,
	}
}

func newTestEngine(t *testing.T, emb *keywordEmbedder, comp Completer) *Engine {
	t.Helper()
	return NewEngine(testConfig(writeTestCorpus(t)),
		knowledge.NewEmbedder(emb), comp, log.NewNop())
}

func TestAnswer_RetrievesRelevantSegment(t *testing.T) {
	t.Parallel()

	comp := &stubCompleter{response: "수수료는 0~20% 사이입니다."}
	e := newTestEngine(t, &keywordEmbedder{}, comp)

	answer, err := e.Answer(context.Background(), "모구 수수료 제한이 뭐야?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	// The fee statement, and only it, must be in the prompt context.
	prompt := comp.lastPrompt()
	assert.Contains(t, prompt, "0~20%")
	assert.NotContains(t, prompt, "14일")
	assert.Contains(t, prompt, "모구 수수료 제한이 뭐야?")
}

func TestRetrieve_ByTopic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &keywordEmbedder{}, &stubCompleter{response: "ok"})

	segments, err := e.Retrieve(context.Background(), "마감 기한 알려줘")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Contains(t, segments[0].Text, "14일")
}

func TestWarmup_Idempotent(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{}
	e := newTestEngine(t, emb, &stubCompleter{response: "ok"})

	for range 5 {
		require.NoError(t, e.Warmup(context.Background()))
	}

	batch, _ := emb.counts()
	assert.Equal(t, 1, batch, "repeated warmup must not re-embed the corpus")
	assert.True(t, e.Ready())
}

func TestInit_SingleFlight(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{}
	e := newTestEngine(t, emb, &stubCompleter{response: "ok"})

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.Warmup(context.Background())
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	batch, _ := emb.counts()
	assert.Equal(t, 1, batch, "concurrent first requests must share one initialization")
}

func TestInit_FailureThenRetry(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{failuresLeft: 1}
	e := newTestEngine(t, emb, &stubCompleter{response: "ok"})

	// First request: embedding service unreachable, engine stays unready.
	_, err := e.Answer(context.Background(), "수수료?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.False(t, e.Ready())

	// Service recovers; the next request retries initialization and succeeds.
	answer, err := e.Answer(context.Background(), "수수료?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.True(t, e.Ready())
}

func TestInit_MissingCorpus(t *testing.T) {
	t.Parallel()

	cfg := testConfig(filepath.Join(t.TempDir(), "missing.txt"))
	e := NewEngine(cfg, knowledge.NewEmbedder(&keywordEmbedder{}), &stubCompleter{}, log.NewNop())

	_, err := e.Answer(context.Background(), "수수료?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestAnswer_EmptyCompletionFallsBack(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &keywordEmbedder{}, &stubCompleter{response: "  "})

	answer, err := e.Answer(context.Background(), "수수료?")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer)
}

func TestAnswer_CompletionHardFailure(t *testing.T) {
	t.Parallel()

	comp := &stubCompleter{err: errors.New("quota exceeded")}
	e := newTestEngine(t, &keywordEmbedder{}, comp)

	_, err := e.Answer(context.Background(), "수수료?")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotReady), "completion failure is not an init failure")
}

func TestAnswer_QueryEmbeddingFailure(t *testing.T) {
	t.Parallel()

	emb := &keywordEmbedder{}
	e := newTestEngine(t, emb, &stubCompleter{response: "ok"})
	require.NoError(t, e.Warmup(context.Background()))

	// Fail only the per-request query embedding; the index stays ready.
	emb.mu.Lock()
	emb.failuresLeft = 1
	emb.mu.Unlock()

	_, err := e.Answer(context.Background(), "수수료?")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotReady))
	assert.True(t, e.Ready())
}

func TestFormatPrompt(t *testing.T) {
	t.Parallel()

	prompt := formatPrompt("", "문맥 내용", "질문 내용")
	assert.Contains(t, prompt, "Context: 문맥 내용")
	assert.Contains(t, prompt, "Question: 질문 내용")
	assert.Contains(t, prompt, notFoundAnswer)
	assert.Contains(t, prompt, "한국어로 답변해주세요")
}

func TestFormatPrompt_ConfiguredLanguage(t *testing.T) {
	t.Parallel()

	prompt := formatPrompt("영어", "문맥", "질문")
	assert.Contains(t, prompt, "영어로 답변해주세요")
	assert.NotContains(t, prompt, "한국어")
}

func TestAnswer_UsesConfiguredLanguage(t *testing.T) {
	t.Parallel()

	comp := &stubCompleter{response: "answer"}
	cfg := testConfig(writeTestCorpus(t))
	cfg.Language = "영어"
	e := NewEngine(cfg, knowledge.NewEmbedder(&keywordEmbedder{}), comp, log.NewNop())

	_, err := e.Answer(context.Background(), "수수료?")
	require.NoError(t, err)
	assert.Contains(t, comp.lastPrompt(), "영어로 답변해주세요")
}

func TestBuildContext(t *testing.T) {
	t.Parallel()

	segs := []knowledge.Segment{{Text: "첫째"}, {Text: "둘째"}}
	assert.Equal(t, "첫째\n\n둘째", buildContext(segs))
}
