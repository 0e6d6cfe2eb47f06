package breakdown

import (
	"context"
	"errors"
	"testing"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "numbered with dots",
			in:   "1. Boil water\n2. Add pasta\n3. Drain",
			want: []string{"Boil water", "Add pasta", "Drain"},
		},
		{
			name: "numbered with parens and blank lines",
			in:   "1) Preheat oven\n\n2) Mix batter\n",
			want: []string{"Preheat oven", "Mix batter"},
		},
		{
			name: "bulleted",
			in:   "- Chop onions\n* Fry gently",
			want: []string{"Chop onions", "Fry gently"},
		},
		{
			name: "unnumbered lines still count",
			in:   "Boil water\nAdd salt",
			want: []string{"Boil water", "Add salt"},
		},
		{
			name: "empty input",
			in:   "\n\n  \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSteps(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d steps, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, s := range got {
				if s.Index != i {
					t.Errorf("step %d has index %d", i, s.Index)
				}
				if s.Text != tt.want[i] {
					t.Errorf("step %d = %q, want %q", i, s.Text, tt.want[i])
				}
			}
		})
	}
}

type stubProvider struct {
	text string
	err  error
}

func (p stubProvider) Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	return p.text, p.err
}

func TestGeneratorBreakdown(t *testing.T) {
	g := NewGenerator(stubProvider{text: "1. Boil\n2. Serve"})
	steps, err := g.Breakdown(context.Background(), "pasta recipe")
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if len(steps) != 2 || steps[1].Text != "Serve" {
		t.Errorf("steps = %+v", steps)
	}
}

func TestGeneratorBreakdownErrors(t *testing.T) {
	g := NewGenerator(stubProvider{err: errors.New("model offline")})
	if _, err := g.Breakdown(context.Background(), "recipe"); err == nil {
		t.Error("provider error swallowed")
	}

	g = NewGenerator(stubProvider{text: "\n\n"})
	if _, err := g.Breakdown(context.Background(), "recipe"); err == nil {
		t.Error("empty breakdown accepted")
	}
}
