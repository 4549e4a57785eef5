// Package suggest turns post content into a short list of tag suggestions.
package suggest

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/metrics"
)

var logg = logger.New()

// MaxCategories caps how many suggestions a caller receives.
const MaxCategories = 5

// Classifier proposes categories for a piece of text.
type Classifier interface {
	Classify(ctx context.Context, content string) ([]string, error)
}

// Disabled is used when no model is configured. It always fails.
type Disabled struct{}

func (Disabled) Classify(context.Context, string) ([]string, error) {
	return nil, errors.New("suggestions are not configured")
}

type Service struct {
	classifier Classifier
}

// NewService wraps c. A nil classifier behaves like Disabled.
func NewService(c Classifier) *Service {
	if c == nil {
		c = Disabled{}
	}
	return &Service{classifier: c}
}

// Suggest never fails: classifier errors and blank content yield an empty list.
func (s *Service) Suggest(ctx context.Context, content string) []string {
	out, err := s.Try(ctx, content)
	if err != nil {
		return []string{}
	}
	return out
}

// Try is Suggest with the failure reported as a SuggestionFailure error.
func (s *Service) Try(ctx context.Context, content string) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		metrics.Suggestions.WithLabelValues("empty").Inc()
		return []string{}, nil
	}
	raw, err := s.classifier.Classify(ctx, content)
	if err != nil {
		metrics.Suggestions.WithLabelValues("error").Inc()
		logg.Warn("suggest", "Classifier failed, returning no suggestions", err)
		return nil, apperrors.Wrap(apperrors.CodeSuggestionFailure, "suggest tags", err)
	}
	metrics.Suggestions.WithLabelValues("ok").Inc()
	return Normalize(raw), nil
}

// Normalize trims, drops blanks and case-insensitive duplicates, and caps
// the list at MaxCategories.
func Normalize(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := []string{}
	for _, c := range raw {
		c = strings.TrimSpace(c)
		k := strings.ToLower(c)
		if c == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
		if len(out) == MaxCategories {
			break
		}
	}
	return out
}
