package detection

import (
	"testing"

	"github.com/ironsheep/focus-narrator/internal/element"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want element.Type
	}{
		{"small square", 16, 16, element.Checkbox},
		{"small slightly skewed", 24, 16, element.Checkbox},
		{"small too skewed", 29, 12, element.Unknown},
		{"button", 90, 30, element.Button},
		{"button lower bound", 45, 30, element.Button},
		{"button upper bound", 120, 30, element.Button},
		{"narrow wide-ish", 30, 20, element.Unknown},
		{"text field", 200, 30, element.TextField},
		{"large square", 200, 200, element.Unknown},
		{"tall", 30, 200, element.Unknown},
		{"degenerate", 0, 10, element.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.w, tt.h); got != tt.want {
				t.Errorf("Classify(%d, %d): got %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}
