package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/ai"
	"github.com/spigell/hire-labor/internal/taxonomy"
)

type stubGenerator struct {
	response   string
	err        error
	delay      time.Duration
	calls      int
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func names(categories []taxonomy.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Name)
	}
	return out
}

func TestClassifierExtractsCategories(t *testing.T) {
	stub := &stubGenerator{response: "Plumber"}
	classifier := NewClassifier(stub, zap.NewNop(), Options{})

	categories, err := classifier.ExtractCategories(context.Background(), "I need a plumber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := names(categories); len(got) != 1 || got[0] != "Plumber" {
		t.Fatalf("unexpected categories: %v", got)
	}

	if !strings.Contains(stub.lastPrompt, `Given this user search query: "I need a plumber"`) {
		t.Fatalf("expected query in prompt, got: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "- AC Repair (air conditioner, cooling, AC service)") {
		t.Fatalf("expected taxonomy in prompt, got: %s", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unexpected unresolved placeholder in prompt")
	}
}

func TestClassifierNoneIsEmptySet(t *testing.T) {
	classifier := NewClassifier(&stubGenerator{response: "none"}, zap.NewNop(), Options{})

	categories, err := classifier.ExtractCategories(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if categories == nil || len(categories) != 0 {
		t.Fatalf("expected empty non-nil set, got %v", categories)
	}
}

func TestClassifierUnavailable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		gen  *stubGenerator
	}{
		{name: "transport error", gen: &stubGenerator{err: errors.New("dial tcp: i/o timeout")}},
		{name: "empty reply", gen: &stubGenerator{response: "   "}},
		{name: "unknown category", gen: &stubGenerator{response: "Plumber, Astronaut"}},
		{name: "free text", gen: &stubGenerator{response: "I think you want a plumber"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			classifier := NewClassifier(tc.gen, zap.NewNop(), Options{})
			categories, err := classifier.ExtractCategories(context.Background(), "query")
			if !ai.IsUnavailable(err) {
				t.Fatalf("expected unavailable error, got %v (categories %v)", err, names(categories))
			}
		})
	}
}

func TestClassifierWithoutGenerator(t *testing.T) {
	var nilClassifier *Classifier
	if _, err := nilClassifier.ExtractCategories(context.Background(), "plumber"); !ai.IsUnavailable(err) {
		t.Fatalf("expected unavailable error for nil classifier, got %v", err)
	}

	classifier := NewClassifier(nil, nil, Options{})
	if _, err := classifier.ExtractCategories(context.Background(), "plumber"); !ai.IsUnavailable(err) {
		t.Fatalf("expected unavailable error without generator, got %v", err)
	}
}

func TestClassifierTimeout(t *testing.T) {
	stub := &stubGenerator{response: "Plumber", delay: 200 * time.Millisecond}
	classifier := NewClassifier(stub, zap.NewNop(), Options{Timeout: 10 * time.Millisecond})

	start := time.Now()
	_, err := classifier.ExtractCategories(context.Background(), "plumber")
	if !ai.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("timeout was not enforced, took %s", elapsed)
	}
}

func TestClassifierRateLimit(t *testing.T) {
	stub := &stubGenerator{response: "Welder"}
	classifier := NewClassifier(stub, zap.NewNop(), Options{Rate: 0.001, Burst: 1})

	if _, err := classifier.ExtractCategories(context.Background(), "gate repair"); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}

	_, err := classifier.ExtractCategories(context.Background(), "gate repair")
	if !ai.IsUnavailable(err) || !errors.Is(err, errRateLimited) {
		t.Fatalf("expected rate limited unavailable error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected generator to be called once, got %d", stub.calls)
	}
}

func TestParseCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "single", raw: "Plumber", want: []string{"Plumber"}},
		{name: "case insensitive list", raw: "plumber, ELECTRICIAN", want: []string{"Plumber", "Electrician"}},
		{name: "multi word", raw: "AC Repair", want: []string{"AC Repair"}},
		{name: "duplicates collapse", raw: "Mason, mason", want: []string{"Mason"}},
		{name: "trailing period and quotes", raw: "\"Painter, Welder.\"", want: []string{"Painter", "Welder"}},
		{name: "code fence", raw: "```\nCarpenter\n```", want: []string{"Carpenter"}},
		{name: "trailing comma", raw: "Driver,", want: []string{"Driver"}},
		{name: "none sentinel", raw: "NONE", want: []string{}},
		{name: "none quoted", raw: "'None.'", want: []string{}},
		{name: "only commas", raw: ",,", wantErr: true},
		{name: "unknown", raw: "Chef", wantErr: true},
		{name: "partial name", raw: "AC", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseCategories(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", names(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			gotNames := names(got)
			if len(gotNames) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, gotNames)
			}
			for i := range tt.want {
				if gotNames[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, gotNames)
				}
			}
		})
	}
}

func TestBuildPromptEmbedsQueryAndTaxonomy(t *testing.T) {
	prompt := buildPrompt("  my tap\n\tis   leaking ")

	if !strings.Contains(prompt, "my tap is leaking") {
		t.Fatalf("expected collapsed query in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- Plumber (") {
		t.Fatalf("expected taxonomy in prompt, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unexpanded placeholder in prompt:\n%s", prompt)
	}
}
