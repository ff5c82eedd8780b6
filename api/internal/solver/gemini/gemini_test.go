package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linearsolve/api/internal/solver"
)

type fakeModel struct {
	calls int
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.parts = parts
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.Text(t))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func newTestEngine(m *fakeModel) (*Engine, *int) {
	closed := 0
	e := New("test-key", "gemini-test")
	e.open = func(_ context.Context, apiKey, model string) (generator, func() error, error) {
		return m, func() error { closed++; return nil }, nil
	}
	return e, &closed
}

func TestSolveTextOnly(t *testing.T) {
	answer := "## Yechim\n\n$x = 1.2$, $y = 0.2$"
	m := &fakeModel{resp: textResponse(answer)}
	e, closed := newTestEngine(m)

	out, err := e.Solve(context.Background(), solver.Problem{Text: "Solve 2x+3y=5, x-y=1"})
	require.NoError(t, err)
	assert.Equal(t, answer, out)
	assert.Equal(t, 1, *closed)

	require.Len(t, m.parts, 1)
	assert.Equal(t, genai.Text("Solve 2x+3y=5, x-y=1"), m.parts[0])
}

func TestSolveImageOnly(t *testing.T) {
	photo := []byte{0xFF, 0xD8, 0xFF, 0xDB, 1, 2, 3}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(photo)
	m := &fakeModel{resp: textResponse("javob")}
	e, _ := newTestEngine(m)

	_, err := e.Solve(context.Background(), solver.Problem{Image: dataURL})
	require.NoError(t, err)

	require.Len(t, m.parts, 2)
	assert.Equal(t, genai.Text(solver.DefaultImagePrompt), m.parts[0])
	blob, ok := m.parts[1].(*genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", blob.MIMEType)
	assert.Equal(t, photo, blob.Data)
}

func TestSolveJoinsTextParts(t *testing.T) {
	m := &fakeModel{resp: textResponse("a ", "b")}
	e, _ := newTestEngine(m)

	out, err := e.Solve(context.Background(), solver.Problem{Text: "q"})
	require.NoError(t, err)
	assert.Equal(t, "a b", out)
}

func TestSolveEmptyResponse(t *testing.T) {
	m := &fakeModel{resp: &genai.GenerateContentResponse{}}
	e, _ := newTestEngine(m)

	out, err := e.Solve(context.Background(), solver.Problem{Text: "q"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSolveFailures(t *testing.T) {
	t.Run("service error collapses to ErrSolveFailed", func(t *testing.T) {
		m := &fakeModel{err: errors.New("googleapi: Error 503")}
		e, closed := newTestEngine(m)

		out, err := e.Solve(context.Background(), solver.Problem{Text: "q"})
		assert.Empty(t, out)
		assert.Same(t, solver.ErrSolveFailed, err)
		assert.Equal(t, 1, *closed)
	})

	t.Run("client creation error", func(t *testing.T) {
		e := New("k", "m")
		e.open = func(context.Context, string, string) (generator, func() error, error) {
			return nil, nil, errors.New("dial")
		}
		_, err := e.Solve(context.Background(), solver.Problem{Text: "q"})
		assert.Same(t, solver.ErrSolveFailed, err)
	})

	t.Run("empty api key never opens a client", func(t *testing.T) {
		m := &fakeModel{resp: textResponse("x")}
		e, _ := newTestEngine(m)
		e.APIKey = ""

		_, err := e.Solve(context.Background(), solver.Problem{Text: "q"})
		assert.Same(t, solver.ErrSolveFailed, err)
		assert.Zero(t, m.calls)
	})

	t.Run("undecodable image", func(t *testing.T) {
		m := &fakeModel{resp: textResponse("x")}
		e, _ := newTestEngine(m)

		_, err := e.Solve(context.Background(), solver.Problem{Image: "data:image/jpeg;base64,%%%"})
		assert.Same(t, solver.ErrSolveFailed, err)
		assert.Zero(t, m.calls)
	})
}

func TestConfigure(t *testing.T) {
	m := &genai.GenerativeModel{}
	configure(m)

	require.NotNil(t, m.Temperature)
	assert.InDelta(t, 0.2, *m.Temperature, 1e-6)
	require.NotNil(t, m.SystemInstruction)
	require.Len(t, m.SystemInstruction.Parts, 1)
	assert.Equal(t, genai.Text(solver.SystemInstruction), m.SystemInstruction.Parts[0])
}

func TestNewTrims(t *testing.T) {
	e := New(" key ", " gemini-3-flash-preview ")
	assert.Equal(t, "key", e.APIKey)
	assert.Equal(t, "gemini-3-flash-preview", e.GetModel())
	assert.Equal(t, "gemini", e.Name())
}
