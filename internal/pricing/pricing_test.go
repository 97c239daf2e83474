package pricing

import (
	"errors"
	"testing"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
)

func TestResponsePriceExactConstants(t *testing.T) {
	table := Default()

	tests := []struct {
		model string
		in    int64
		out   int64
		want  float64
	}{
		{"gpt-4.1", 1_000_000, 0, 2.0},
		{"gpt-4.1", 0, 1_000_000, 8.0},
		{"gpt-4.1-mini", 1_000_000, 0, 0.4},
		{"gpt-4.1-mini", 0, 1_000_000, 1.6},
		{"gpt-4o", 1_000_000, 0, 2.5},
		{"gpt-4o-mini", 0, 1_000_000, 0.6},
		{"gemini-2.5-flash", 1_000_000, 0, 0.3},
		{"gpt-4.1", 0, 0, 0},
	}

	for _, tt := range tests {
		got, err := table.ResponsePrice(tt.model, tt.in, tt.out)
		if err != nil {
			t.Fatalf("ResponsePrice(%s) error = %v", tt.model, err)
		}
		if got != tt.want {
			t.Errorf("ResponsePrice(%s, %d, %d) = %v, want %v", tt.model, tt.in, tt.out, got, tt.want)
		}
	}
}

func TestResponsePriceUnknownModel(t *testing.T) {
	table := Default()
	_, err := table.ResponsePrice("gpt-9000", 100, 100)
	if !errors.Is(err, errs.ErrConfiguration) {
		t.Errorf("ResponsePrice(unknown) error = %v, want ErrConfiguration", err)
	}
}

func TestMergeOverrides(t *testing.T) {
	table := Default().Merge(map[string]ModelPrice{
		"my-model": {Input: 1.5, Output: 3.0},
		"gpt-4.1":  {Input: 1.0, Output: 4.0},
	})

	if !table.Supports("my-model") {
		t.Error("merged table missing new model")
	}
	got, err := table.ResponsePrice("gpt-4.1", 1_000_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.0 {
		t.Errorf("override not applied: got %v, want 1.0", got)
	}

	// The original table must be untouched.
	got, err = Default().ResponsePrice("gpt-4.1", 1_000_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2.0 {
		t.Errorf("Default table mutated: got %v, want 2.0", got)
	}
}

func TestModelsSorted(t *testing.T) {
	models := New(map[string]ModelPrice{"b": {}, "a": {}, "c": {}}).Models()
	want := []string{"a", "b", "c"}
	if len(models) != len(want) {
		t.Fatalf("Models() = %v, want %v", models, want)
	}
	for i := range want {
		if models[i] != want[i] {
			t.Fatalf("Models() = %v, want %v", models, want)
		}
	}
}
