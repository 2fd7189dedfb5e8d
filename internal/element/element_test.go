package element

import (
	"testing"

	"go.viam.com/test"
)

func TestRectGeometry(t *testing.T) {
	r := R(10, 20, 50, 60)
	test.That(t, r.Width(), test.ShouldEqual, 40)
	test.That(t, r.Height(), test.ShouldEqual, 40)
	test.That(t, r.Area(), test.ShouldEqual, 1600)
	test.That(t, r.Center(), test.ShouldResemble, Point{X: 30, Y: 40})
	test.That(t, r.Key(), test.ShouldEqual, "10_20_50_60")
}

func TestRectIntersection(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want int
	}{
		{"identical", R(0, 0, 10, 10), R(0, 0, 10, 10), 100},
		{"partial", R(0, 0, 10, 10), R(5, 5, 15, 15), 25},
		{"contained", R(0, 0, 10, 10), R(2, 2, 4, 4), 4},
		{"touching edges", R(0, 0, 10, 10), R(10, 0, 20, 10), 0},
		{"disjoint", R(0, 0, 10, 10), R(50, 50, 60, 60), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, tt.a.IntersectionArea(tt.b), test.ShouldEqual, tt.want)
			test.That(t, tt.b.IntersectionArea(tt.a), test.ShouldEqual, tt.want)
		})
	}
}

func TestRectContains(t *testing.T) {
	r := R(80, 80, 140, 120)
	test.That(t, r.Contains(Point{X: 100, Y: 100}), test.ShouldBeTrue)
	test.That(t, r.Contains(Point{X: 80, Y: 120}), test.ShouldBeTrue)
	test.That(t, r.Contains(Point{X: 79, Y: 100}), test.ShouldBeFalse)
	test.That(t, r.Contains(Point{X: 100, Y: 121}), test.ShouldBeFalse)
}

func TestRectTouches(t *testing.T) {
	region := R(100, 100, 250, 250)
	test.That(t, R(250, 100, 300, 130).Touches(region), test.ShouldBeTrue)
	test.That(t, R(250, 100, 300, 130).Overlaps(region), test.ShouldBeFalse)
	test.That(t, R(120, 120, 130, 130).Touches(region), test.ShouldBeTrue)
	test.That(t, R(251, 100, 300, 130).Touches(region), test.ShouldBeFalse)
	test.That(t, region.Touches(R(0, 0, 99, 99)), test.ShouldBeFalse)
}

func TestRectClampAndExpand(t *testing.T) {
	bounds := R(0, 0, 100, 100)
	got := R(-5, 10, 50, 200).Clamp(bounds)
	test.That(t, got, test.ShouldResemble, R(0, 10, 50, 100))

	got = R(2, 2, 10, 10).Expand(8).Clamp(bounds)
	test.That(t, got, test.ShouldResemble, R(0, 0, 18, 18))

	// fully outside collapses to an invalid rectangle
	test.That(t, R(200, 200, 300, 300).Clamp(bounds).Valid(), test.ShouldBeFalse)
}

func TestNewRejectsDegenerateBounds(t *testing.T) {
	_, err := New(Button, R(10, 10, 10, 20), "x", 0.5, "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "positive width and height")

	_, err = New(Button, R(10, 20, 30, 5), "x", 0.5, "")
	test.That(t, err, test.ShouldNotBeNil)

	el, err := New(Button, R(10, 10, 20, 20), "ok", 1.7, SourceVision)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, el.Confidence, test.ShouldEqual, 1.0)
}

func TestDescriptionWriteOnce(t *testing.T) {
	el := MustNew(Button, R(0, 0, 10, 10), "Save", 0.9, "")

	_, ok := el.Description()
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, el.SetDescription("button: Save"), test.ShouldBeTrue)
	test.That(t, el.SetDescription("something else"), test.ShouldBeFalse)

	desc, ok := el.Description()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, desc, test.ShouldEqual, "button: Save")
}

func TestReclassifyNeverLowersConfidence(t *testing.T) {
	el := MustNew(Unknown, R(0, 0, 10, 10), "", 0.6, SourceVision)

	up := el.Reclassify(Button, 0.9)
	test.That(t, up.Type, test.ShouldEqual, Button)
	test.That(t, up.Confidence, test.ShouldEqual, 0.9)

	down := up.Reclassify(Link, 0.3)
	test.That(t, down.Type, test.ShouldEqual, Link)
	test.That(t, down.Confidence, test.ShouldEqual, 0.9)

	// original untouched
	test.That(t, el.Type, test.ShouldEqual, Unknown)
	test.That(t, el.Confidence, test.ShouldEqual, 0.6)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		role string
		want Type
	}{
		{"ButtonControl", Button},
		{"EditControl", TextField},
		{"HyperlinkControl", Link},
		{"CheckBoxControl", Checkbox},
		{"RadioButtonControl", Radio},
		{"ComboBoxControl", Dropdown},
		{"TextControl", Paragraph},
		{"ImageControl", Image},
		{"h2", Heading},
		{"link", Link},
		{"pane", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			test.That(t, ParseType(tt.role), test.ShouldEqual, tt.want)
		})
	}
}

func TestMostSpecific(t *testing.T) {
	test.That(t, MostSpecific(Unknown, Button, Link), test.ShouldEqual, Button)
	test.That(t, MostSpecific(Unknown, Unknown), test.ShouldEqual, Unknown)
	test.That(t, MostSpecific(), test.ShouldEqual, Unknown)
}

func TestEqual(t *testing.T) {
	a := MustNew(Button, R(0, 0, 10, 10), "Play", 0.9, SourceVision)
	b := MustNew(Button, R(0, 0, 10, 10), "Play", 0.9, SourceVision)
	a.SetDescription("button: Play")
	test.That(t, a.Equal(b), test.ShouldBeTrue)

	c := MustNew(Button, R(0, 0, 10, 10), "Pause", 0.9, SourceVision)
	test.That(t, a.Equal(c), test.ShouldBeFalse)

	var nilEl *Element
	test.That(t, nilEl.Equal(nil), test.ShouldBeTrue)
	test.That(t, a.Equal(nil), test.ShouldBeFalse)
}
