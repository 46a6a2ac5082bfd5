package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckirubhananth/Agent-Sangam/internal/entity"
	"github.com/ckirubhananth/Agent-Sangam/internal/history"
	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/llm"
	"github.com/ckirubhananth/Agent-Sangam/internal/pipeline"
	"github.com/ckirubhananth/Agent-Sangam/internal/retrieval"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
	"github.com/ckirubhananth/Agent-Sangam/internal/storage"
	"github.com/ckirubhananth/Agent-Sangam/internal/store"
	"github.com/ckirubhananth/Agent-Sangam/internal/summary"
)

// fakeGenerator echoes a canned answer and records prompts.
type fakeGenerator struct {
	prompts []string
	answer  string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type fixture struct {
	svc   *Service
	tasks *pipeline.TaskStore
	gen   *fakeGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := store.New()
	tasks := pipeline.NewTaskStore()
	runner := pipeline.NewRunner(docs, tasks, pipeline.Deps{
		Extractor: pipeline.FileExtractor{},
		Segmenter: segment.NewSegmenter(1),
		Summary:   summary.NewSummarizer(5),
		Indexer:   index.Builder{},
		Entities:  entity.NewScanner(),
	}, log, 0)

	gen := &fakeGenerator{answer: "the dog ran"}
	svc := New(docs, tasks, runner, storage.NewMemoryStore(),
		history.NewStore(6), retrieval.NewEngine(retrieval.TermOverlap{}, 2000),
		gen, log, Options{})
	return &fixture{svc: svc, tasks: tasks, gen: gen}
}

// uploadAndWait uploads and blocks until the pipeline terminates.
func (f *fixture) uploadAndWait(t *testing.T, data, filename string) (docID, taskID string) {
	t.Helper()
	docID, taskID, err := f.svc.Upload(context.Background(), []byte(data), filename)
	require.NoError(t, err)
	task, err := f.tasks.Get(taskID)
	require.NoError(t, err)
	<-task.Done()
	return docID, taskID
}

const bookText = "Chapter 1. The cat sat. Chapter 2. The dog ran."

func TestUpload_PipelineCompletes(t *testing.T) {
	f := newFixture(t)
	_, taskID := f.uploadAndWait(t, bookText, "book.txt")

	snap, err := f.svc.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, store.StageReady, snap.Stage)
	assert.Equal(t, 100, snap.Progress)
	assert.Nil(t, snap.Err)
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Upload(context.Background(), nil, "book.txt")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.Upload(context.Background(), []byte("x"), "binary.exe")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatus_UnknownTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Status("no-such-task")
	assert.ErrorIs(t, err, pipeline.ErrTaskNotFound)
}

func TestSearch_CatScenario(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	snippets, err := f.svc.Search(docID, "cat", 5)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Contains(t, snippets[0].Text, "The cat sat")
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	for _, k := range []int{0, 1, 10} {
		snippets, err := f.svc.Search(docID, "", k)
		require.NoError(t, err)
		assert.Empty(t, snippets)
	}
}

func TestSearch_UnknownDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Search("ghost", "cat", 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQueries_NotReadyBeforePipelineFinishes(t *testing.T) {
	f := newFixture(t)
	// Bypass the runner entirely: create a document stuck in uploaded.
	docs := store.New()
	tasks := pipeline.NewTaskStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := pipeline.NewRunner(docs, tasks, pipeline.Deps{}, log, 0)
	svc := New(docs, tasks, runner, storage.NewMemoryStore(),
		history.NewStore(6), retrieval.NewEngine(nil, 0), f.gen, log, Options{})
	docs.Create("doc-1", "book.txt")

	_, err := svc.Search("doc-1", "cat", 5)
	assert.ErrorIs(t, err, store.ErrNotReady)

	_, err = svc.Context("doc-1", "what did the dog do?")
	assert.ErrorIs(t, err, store.ErrNotReady)

	_, err = svc.Summary("doc-1")
	assert.ErrorIs(t, err, store.ErrNotReady)

	_, err = svc.Entities("doc-1")
	assert.ErrorIs(t, err, store.ErrNotReady)

	_, err = svc.Ask(context.Background(), "doc-1", "u1", "anything?")
	assert.ErrorIs(t, err, store.ErrNotReady)
}

func TestContext_DogScenario(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	out, err := f.svc.Context(docID, "what did the dog do?")
	require.NoError(t, err)
	assert.Contains(t, out, "The dog ran")
	assert.LessOrEqual(t, len(out), retrieval.DefaultBudget)
}

func TestContext_EmptyQuestion(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	_, err := f.svc.Context(docID, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSummary_Available(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	got, err := f.svc.Summary(docID)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestEntities_Grouped(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t,
		"John Smith visited Coney Island on 12/05/2023. He spent 1,500 dollars.", "trip.txt")

	groups, err := f.svc.Entities(docID)
	require.NoError(t, err)
	assert.Contains(t, groups[entity.CategoryPerson], "John Smith")
	assert.Contains(t, groups[entity.CategoryLocation], "Coney Island")
	assert.Contains(t, groups[entity.CategoryDate], "12/05/2023")
	assert.Contains(t, groups[entity.CategoryNumber], "1,500")
}

func TestAsk_AppendsHistory(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	answer, err := f.svc.Ask(context.Background(), docID, "u1", "what did the dog do?")
	require.NoError(t, err)
	assert.Equal(t, "the dog ran", answer)

	turns := f.svc.History("u1", docID)
	require.Len(t, turns, 1)
	assert.Equal(t, "what did the dog do?", turns[0].Question)
	assert.Equal(t, "the dog ran", turns[0].Answer)

	// The prompt passed to the generator carries the retrieved context.
	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "The dog ran")
}

func TestAsk_SevenTurnsKeepsLastSix(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	for i := 1; i <= 7; i++ {
		_, err := f.svc.Ask(context.Background(), docID, "u1", fmt.Sprintf("question %d?", i))
		require.NoError(t, err)
	}

	turns := f.svc.History("u1", docID)
	require.Len(t, turns, 6)
	assert.Equal(t, "question 2?", turns[0].Question)
	assert.Equal(t, "question 7?", turns[5].Question)
	for _, turn := range turns {
		assert.NotEqual(t, "question 1?", turn.Question)
	}
}

func TestAsk_GenerationFailureNotRecorded(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	f.gen.err = &llm.GenerationError{Cause: errors.New("upstream down")}
	_, err := f.svc.Ask(context.Background(), docID, "u1", "anything?")

	var genErr *llm.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Empty(t, f.svc.History("u1", docID), "failed turns must not enter history")
}

func TestAsk_Validation(t *testing.T) {
	f := newFixture(t)
	docID, _ := f.uploadAndWait(t, bookText, "book.txt")

	_, err := f.svc.Ask(context.Background(), docID, "u1", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Ask(context.Background(), docID, "", "question?")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFailedPipeline_QueriesStayNotReady(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := store.New()
	tasks := pipeline.NewTaskStore()
	deps := pipeline.Deps{
		Extractor: pipeline.FileExtractor{},
		Segmenter: segment.NewSegmenter(1),
		Summary:   summary.NewSummarizer(5),
		Indexer:   brokenIndexer{},
		Entities:  entity.NewScanner(),
	}
	runner := pipeline.NewRunner(docs, tasks, deps, log, 0)
	gen := &fakeGenerator{answer: "x"}
	svc := New(docs, tasks, runner, storage.NewMemoryStore(),
		history.NewStore(6), retrieval.NewEngine(nil, 0), gen, log, Options{})

	docID, taskID, err := svc.Upload(context.Background(), []byte(bookText), "book.txt")
	require.NoError(t, err)
	task, err := tasks.Get(taskID)
	require.NoError(t, err)
	<-task.Done()

	snap, err := svc.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, store.StageFailed, snap.Stage)
	require.NotNil(t, snap.Err)
	assert.Equal(t, store.StageIndexing, snap.Err.Stage)

	_, err = svc.Search(docID, "cat", 5)
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, err = svc.Context(docID, "what did the dog do?")
	assert.ErrorIs(t, err, store.ErrNotReady)
}

type brokenIndexer struct{}

func (brokenIndexer) Build(text string, segs []segment.Segment) (*index.Index, error) {
	return nil, errors.New("injected index failure")
}
