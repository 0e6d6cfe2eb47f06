package breakdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Step is one instruction of a recipe breakdown.
type Step struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

const systemMessage = "You break recipes into short, numbered cooking steps. " +
	"Reply with one step per line, numbered from 1. No commentary."

var stepLine = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s*(.+)$`)

// ParseSteps extracts numbered or bulleted steps from provider text.
// Unnumbered non-empty lines count as steps too, so a model that ignores the
// formatting instruction still yields a usable breakdown.
func ParseSteps(text string) []Step {
	var steps []Step
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := stepLine.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		if line == "" {
			continue
		}
		steps = append(steps, Step{Index: len(steps), Text: line})
	}
	return steps
}

// Generator seeds a cooking session's step breakdown from a recipe.
type Generator struct {
	provider Provider
}

func NewGenerator(provider Provider) *Generator {
	return &Generator{provider: provider}
}

// Breakdown asks the provider to split the recipe into steps.
func (g *Generator) Breakdown(ctx context.Context, recipeText string) ([]Step, error) {
	prompt := fmt.Sprintf("Break this recipe into cooking steps:\n\n%s", recipeText)
	text, err := g.provider.Generate(ctx, prompt, systemMessage, 1024)
	if err != nil {
		return nil, fmt.Errorf("generate breakdown: %w", err)
	}
	steps := ParseSteps(text)
	if len(steps) == 0 {
		return nil, fmt.Errorf("provider returned no usable steps")
	}
	return steps, nil
}
