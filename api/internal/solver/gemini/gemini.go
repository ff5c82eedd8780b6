package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/util"
)

// generator: то, что нужно от *genai.GenerativeModel (подменяется в тестах).
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type openFunc func(ctx context.Context, apiKey, model string) (generator, func() error, error)

type Engine struct {
	APIKey string
	Model  string
	open   openFunc
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		open:   openModel,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func openModel(ctx context.Context, apiKey, model string) (generator, func() error, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(model)
	if m == nil {
		_ = cl.Close()
		return nil, nil, fmt.Errorf("gemini: model is nil")
	}
	configure(m)
	return m, cl.Close, nil
}

// configure выставляет фиксированную system-инструкцию и температуру.
func configure(m *genai.GenerativeModel) {
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(solver.Temperature),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(solver.SystemInstruction)},
	}
}

// Solve отправляет один запрос; любая ошибка превращается в solver.ErrSolveFailed.
func (e *Engine) Solve(ctx context.Context, p solver.Problem) (string, error) {
	out, err := e.solve(ctx, p)
	if err != nil {
		log.Printf("gemini solve: %v", err)
		return "", solver.ErrSolveFailed
	}
	return out, nil
}

func (e *Engine) solve(ctx context.Context, p solver.Problem) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	parts, err := buildParts(p)
	if err != nil {
		return "", err
	}

	m, closeFn, err := e.open(ctx, e.APIKey, e.Model)
	if err != nil {
		return "", err
	}
	defer func() { _ = closeFn() }()

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// buildParts: текст (или фраза по умолчанию) + картинка inline, MIME всегда image/jpeg.
func buildParts(p solver.Problem) ([]genai.Part, error) {
	parts := []genai.Part{genai.Text(p.PromptText())}
	if p.HasImage() {
		img, _, err := util.DecodeBase64MaybeDataURL(p.Image)
		if err != nil {
			return nil, fmt.Errorf("gemini: bad image: %w", err)
		}
		parts = append(parts, &genai.Blob{MIMEType: solver.ImageMIME, Data: img})
	}
	return parts, nil
}

// responseText склеивает текстовые части первого кандидата без изменений.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

func ptrFloat32(v float32) *float32 { return &v }
