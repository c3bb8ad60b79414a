package service

import (
	"context"
	"errors"
	"testing"

	"course_gen_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator 固定响应的文本生成桩
type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestOutlineGenerate_Success(t *testing.T) {
	gen := &stubGenerator{response: `{
		"title": "Graph Theory Fundamentals",
		"description": "A practical introduction to graphs.",
		"modules": [
			{"week": 1, "title": "Graphs and Representations", "objectives": ["adjacency lists", "adjacency matrices"], "timeEstimate": "4 hours"},
			{"week": 2, "title": "Traversals", "objectives": ["BFS", "DFS"], "timeEstimate": "5 hours"}
		]
	}`}

	svc := NewOutlineService(gen)
	outline, err := svc.Generate(context.Background(), "Graph Theory", model.Beginner, 2)
	require.NoError(t, err)

	assert.Equal(t, "Graph Theory Fundamentals", outline.Title)
	require.Len(t, outline.Modules, 2)
	assert.Equal(t, 1, outline.Modules[0].Week)
	assert.Equal(t, "Traversals", outline.Modules[1].Title)
	assert.Equal(t, []string{"BFS", "DFS"}, outline.Modules[1].Objectives)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Graph Theory")
	assert.Contains(t, gen.prompts[0], "2 weeks")
}

func TestOutlineGenerate_NormalizesMissingFields(t *testing.T) {
	gen := &stubGenerator{response: `{
		"modules": [
			{"objectives": ["o1"]},
			{"objectives": ["o2"]}
		]
	}`}

	svc := NewOutlineService(gen)
	outline, err := svc.Generate(context.Background(), "Linear Algebra", model.Intermediate, 2)
	require.NoError(t, err)

	assert.Equal(t, "Linear Algebra", outline.Title)
	assert.Equal(t, 1, outline.Modules[0].Week)
	assert.Equal(t, 2, outline.Modules[1].Week)
	assert.Equal(t, "Week 1", outline.Modules[0].Title)
}

func TestOutlineGenerate_RecoversWrappedJSON(t *testing.T) {
	gen := &stubGenerator{response: "Here is your outline:\n```json\n" +
		`{"title": "Rust Basics", "modules": [{"week": 1, "title": "Ownership"}]}` +
		"\n```"}

	svc := NewOutlineService(gen)
	outline, err := svc.Generate(context.Background(), "Rust", model.Beginner, 1)
	require.NoError(t, err)
	assert.Equal(t, "Rust Basics", outline.Title)
	require.Len(t, outline.Modules, 1)
}

func TestOutlineGenerate_UnparseableOutput(t *testing.T) {
	gen := &stubGenerator{response: "I am unable to help with that request."}

	svc := NewOutlineService(gen)
	_, err := svc.Generate(context.Background(), "Chemistry", model.Beginner, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutlineParse))
}

func TestOutlineGenerate_EmptyModules(t *testing.T) {
	gen := &stubGenerator{response: `{"title": "Empty", "modules": []}`}

	svc := NewOutlineService(gen)
	_, err := svc.Generate(context.Background(), "Nothing", model.Beginner, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutlineParse))
}

func TestOutlineGenerate_GeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}

	svc := NewOutlineService(gen)
	_, err := svc.Generate(context.Background(), "Physics", model.Advanced, 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOutlineParse))
}
