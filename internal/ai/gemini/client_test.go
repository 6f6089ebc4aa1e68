package gemini

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	text   string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.text = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeneratorReturnsFirstCandidateText(t *testing.T) {
	models := &fakeModels{resp: textResponse(" Plumber ", "", "Electrician")}
	g := &Generator{models: models, modelName: "gemini-test", logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "  prompt  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "Plumber\nElectrician" {
		t.Fatalf("unexpected output: %q", output)
	}
	if models.calls != 1 {
		t.Fatalf("expected a single call, got %d", models.calls)
	}
	if models.model != "gemini-test" || models.text != "prompt" {
		t.Fatalf("unexpected request: model=%q text=%q", models.model, models.text)
	}
	if models.config == nil || models.config.Temperature == nil || *models.config.Temperature != 0 {
		t.Fatalf("expected zero temperature config")
	}
}

func TestGeneratorDoesNotRetryAPIErrors(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := &Generator{models: models, modelName: "gemini-test", logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on api failure")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: &genai.GenerateContentResponse{}}, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestGeneratorValidation(t *testing.T) {
	var nilGenerator *Generator
	if _, err := nilGenerator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if nilGenerator.Model() != "" {
		t.Fatal("expected empty model for nil generator")
	}

	g := &Generator{models: &fakeModels{}, logger: zap.NewNop()}
	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}

	if _, err := NewGenerator(context.Background(), " ", "", zap.NewNop()); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
