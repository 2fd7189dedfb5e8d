package identity

import (
	"fmt"
	"testing"

	"go.viam.com/test"

	"github.com/ironsheep/focus-narrator/internal/element"
)

func el(x1, y1, x2, y2 int, text string) *element.Element {
	return element.MustNew(element.Button, element.R(x1, y1, x2, y2), text, 0.9, "")
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b element.Rect
		want float64
	}{
		{"identical", element.R(0, 0, 10, 10), element.R(0, 0, 10, 10), 1},
		{"contained small", element.R(0, 0, 100, 100), element.R(10, 10, 20, 20), 1},
		{"half", element.R(0, 0, 10, 10), element.R(5, 0, 15, 10), 0.5},
		{"disjoint", element.R(0, 0, 10, 10), element.R(20, 20, 30, 30), 0},
		{"degenerate", element.R(0, 0, 0, 10), element.R(0, 0, 10, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, OverlapRatio(tt.a, tt.b), test.ShouldAlmostEqual, tt.want)
		})
	}
}

func TestThresholdBoundary(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	// 100x100 boxes offset horizontally: overlap 70 columns -> ratio exactly 0.7
	a := el(0, 0, 100, 100, "Salvar")
	b := el(30, 0, 130, 100, "Salvar")
	test.That(t, OverlapRatio(a.Bounds, b.Bounds), test.ShouldEqual, 0.7)
	test.That(t, m.Same(a, b), test.ShouldBeFalse)

	// offset of 29 -> ratio 0.71
	c := el(29, 0, 129, 100, "Salvar")
	test.That(t, OverlapRatio(a.Bounds, c.Bounds), test.ShouldAlmostEqual, 0.71)
	test.That(t, m.Same(a, c), test.ShouldBeTrue)
}

func TestTextGate(t *testing.T) {
	m := NewMatcher(0)
	play := el(0, 0, 50, 20, "Play")
	pause := el(0, 0, 50, 20, "Pause")
	test.That(t, m.Same(play, pause), test.ShouldBeFalse)
}

func TestEmptyText(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	test.That(t, m.Same(el(0, 0, 40, 40, ""), el(0, 0, 40, 40, "")), test.ShouldBeTrue)
	test.That(t, m.Same(el(0, 0, 40, 40, ""), el(100, 100, 140, 140, "")), test.ShouldBeFalse)
	test.That(t, m.Same(el(0, 0, 40, 40, ""), el(0, 0, 40, 40, "OK")), test.ShouldBeFalse)
}

func TestNil(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	test.That(t, m.Same(nil, nil), test.ShouldBeTrue)
	test.That(t, m.Same(nil, el(0, 0, 1, 1, "")), test.ShouldBeFalse)
	test.That(t, m.Same(el(0, 0, 1, 1, ""), nil), test.ShouldBeFalse)
}

func TestSymmetry(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	texts := []string{"", "OK", "Cancel"}
	var elems []*element.Element
	for i := 0; i < 6; i++ {
		for _, txt := range texts {
			x := i * 13
			// sizes vary so min(areaA, areaB) differs between the operands
			elems = append(elems, el(x, x/2, x+20+i*7, x/2+15+i*3, txt))
		}
	}
	elems = append(elems, nil)

	for i, a := range elems {
		for j, b := range elems {
			t.Run(fmt.Sprintf("%d_%d", i, j), func(t *testing.T) {
				test.That(t, m.Same(a, b), test.ShouldEqual, m.Same(b, a))
			})
		}
	}
}
