package rules

import (
	"fmt"
	"strings"

	"github.com/joescharf/focuswin/internal/models"
)

// Engine classifies window text by keyword priority. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	study       []string
	distraction []string
	search      []string
	override    []string // explicit learning followed by educational channels
}

// NewEngine builds an engine from the given lists. Keywords are lower-cased;
// blank entries are dropped.
func NewEngine(k Keywords) *Engine {
	return &Engine{
		study:       normalize(k.Study),
		distraction: normalize(k.Distraction),
		search:      normalize(k.Search),
		override:    append(normalize(k.ExplicitLearning), normalize(k.EducationalChannels)...),
	}
}

// NewDefaultEngine returns an engine over DefaultKeywords.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultKeywords())
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, strings.ToLower(kw))
	}
	return out
}

// Classify returns the verdict for an app name and window title.
//
// Stages, in strict priority order: search keywords, distraction sites (with
// an educational override), study keywords. Unmatched text is unknown.
func (e *Engine) Classify(appName, windowTitle string) models.FocusVerdict {
	text := strings.ToLower(appName + " " + windowTitle)

	if kw, ok := firstMatch(text, e.search); ok {
		return verdict(models.FocusStateSearching, 0.9, fmt.Sprintf("Detected search keyword: %s", kw))
	}

	if site, ok := firstMatch(text, e.distraction); ok {
		if edu, ok := firstMatch(text, e.override); ok {
			return verdict(models.FocusStateFocused, 0.8, fmt.Sprintf("Educational content on %s: %s", site, edu))
		}
		return verdict(models.FocusStateDistracted, 0.95, fmt.Sprintf("Detected distraction app/site: %s", site))
	}

	if kw, ok := firstMatch(text, e.study); ok {
		return verdict(models.FocusStateFocused, 0.8, fmt.Sprintf("Detected study keyword: %s", kw))
	}

	return verdict(models.FocusStateUnknown, 0, "No rules matched")
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func verdict(state models.FocusState, confidence float64, reason string) models.FocusVerdict {
	return models.FocusVerdict{
		State:      state,
		Confidence: confidence,
		Reason:     reason,
		Source:     models.SourceRules,
	}
}
