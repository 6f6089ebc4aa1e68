package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/hire-labor/internal/ai"
	"github.com/spigell/hire-labor/internal/taxonomy"
	"github.com/spigell/hire-labor/internal/util"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	noneToken           = "NONE"
	defaultTimeout      = 10 * time.Second
	defaultMaxLogLength = 200
)

var (
	errEmptyReply    = errors.New("empty classifier reply")
	errRateLimited   = errors.New("classifier rate limit exceeded")
	errNotConfigured = errors.New("classifier is not configured")
)

// Options tune a Classifier. Zero values select the defaults.
type Options struct {
	// Timeout bounds a single classification request.
	Timeout time.Duration
	// Rate is the sustained number of requests per second. Zero disables limiting.
	Rate float64
	// Burst is the limiter bucket size. Defaults to 1 when Rate is set.
	Burst        int
	MaxLogLength int
}

// Classifier extracts skill categories from a query with a single Gemini call.
type Classifier struct {
	generator contentGenerator
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Classifier = (*Classifier)(nil)

func NewClassifier(generator contentGenerator, logger *zap.Logger, opts Options) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	c := &Classifier{
		generator: generator,
		timeout:   opts.Timeout,
		logger:    logger,
		maxLogLen: opts.MaxLogLength,
	}

	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}

	return c
}

// ExtractCategories returns the categories named by the classifier, an empty slice
// when it answered NONE, or an error wrapping ai.ErrUnavailable.
func (c *Classifier) ExtractCategories(ctx context.Context, query string) ([]taxonomy.Category, error) {
	if c == nil || c.generator == nil {
		return nil, ai.Unavailable(errNotConfigured)
	}

	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Warn("skipping classification", zap.Error(errRateLimited))
		return nil, ai.Unavailable(errRateLimited)
	}

	prompt := buildPrompt(query)

	c.logger.Debug("gemini generate content request",
		zap.String("query", util.TruncateForLog(query, c.maxLogLen)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, ai.Unavailable(err)
	}

	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, c.maxLogLen)),
	)

	categories, err := parseCategories(raw)
	if err != nil {
		return nil, ai.Unavailable(fmt.Errorf("parse gemini response: %w", err))
	}

	return categories, nil
}

// generate calls the generator under the request timeout. The deadline is
// enforced here as well, so a generator that ignores ctx cannot hold a search.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type reply struct {
		raw string
		err error
	}

	done := make(chan reply, 1)
	go func() {
		raw, err := c.generator.GenerateContent(ctx, prompt)
		done <- reply{raw: raw, err: err}
	}()

	select {
	case r := <-done:
		return r.raw, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("classification aborted after %s: %w", c.timeout, ctx.Err())
	}
}

func buildPrompt(query string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Skills:\n{{TAXONOMY}}\n\nQuery: {{QUERY}}\n\nReturn matching skill names separated by commas or NONE:"
	}
	prompt := strings.ReplaceAll(template, "{{TAXONOMY}}", taxonomy.Describe())
	prompt = strings.ReplaceAll(prompt, "{{QUERY}}", util.CollapseSpaces(query))
	return prompt
}

// parseCategories accepts either NONE or a comma separated list of taxonomy names.
func parseCategories(raw string) ([]taxonomy.Category, error) {
	cleaned := cleanReply(raw)
	if cleaned == "" {
		return nil, errEmptyReply
	}

	if strings.EqualFold(cleaned, noneToken) {
		return []taxonomy.Category{}, nil
	}

	var (
		categories []taxonomy.Category
		seen       = make(map[string]struct{})
	)
	for _, part := range strings.Split(cleaned, ",") {
		name := cleanReply(part)
		if name == "" {
			continue
		}
		category, ok := taxonomy.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		if _, dup := seen[category.Name]; dup {
			continue
		}
		seen[category.Name] = struct{}{}
		categories = append(categories, category)
	}

	if len(categories) == 0 {
		return nil, errEmptyReply
	}

	return categories, nil
}

func cleanReply(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`\"'")
	raw = strings.TrimSuffix(raw, ".")
	return strings.TrimSpace(raw)
}
