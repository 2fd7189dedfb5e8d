package perception

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/ironsheep/focus-narrator/internal/element"
)

func chromeWindow() Window {
	return Window{Title: "Checkout - Google Chrome", Class: "Chrome_WidgetWin_1"}
}

func sampleTree() *Node {
	return &Node{Role: "pane", Bounds: element.R(0, 0, 1200, 800), Children: []*Node{
		{Role: "heading", Bounds: element.R(20, 10, 400, 40), Text: "Checkout"},
		{Role: "group", Bounds: element.R(700, 500, 1100, 700), Children: []*Node{
			{Role: "ButtonControl", Bounds: element.R(80, 80, 140, 120), Text: " Salvar ", ID: "save"},
			{Role: "edit", Bounds: element.R(60, 130, 300, 160), Text: "Email", ID: "email"},
			{Role: "image", Bounds: element.R(100, 100, 104, 104), Text: "dot"},
		}},
		{Role: "main", Bounds: element.R(0, 200, 1200, 800), Text: "Content"},
	}}
}

func TestStructuredSource_Detect(t *testing.T) {
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), root: sampleTree()}, StructuredConfig{}, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	test.That(t, src.Available(ctx), test.ShouldBeTrue)
	test.That(t, src.Browser(ctx), test.ShouldEqual, "chrome")

	// the group lies outside the region, its button child does not
	els, err := src.Detect(ctx, element.R(50, 50, 200, 170))
	test.That(t, err, test.ShouldBeNil)

	var texts []string
	for _, el := range els {
		texts = append(texts, el.Text)
		test.That(t, el.Confidence, test.ShouldEqual, TreeConfidence)
		test.That(t, el.SourceID, test.ShouldEqual, element.SourceHTML)
	}
	// root pane overlaps the region too
	test.That(t, texts, test.ShouldResemble, []string{"", "Salvar", "Email"})
	test.That(t, els[1].Type, test.ShouldEqual, element.Button)
	test.That(t, els[2].Type, test.ShouldEqual, element.TextField)
}

func TestStructuredSource_DetectIncludesBorderNodes(t *testing.T) {
	root := &Node{Role: "pane", Bounds: element.R(0, 0, 90, 90), Children: []*Node{
		{Role: "button", Bounds: element.R(250, 100, 300, 130), Text: "right edge"},
		{Role: "link", Bounds: element.R(120, 250, 200, 270), Text: "bottom edge"},
		{Role: "button", Bounds: element.R(251, 100, 300, 130), Text: "outside"},
	}}
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), root: root}, StructuredConfig{}, nil)

	els, err := src.Detect(context.Background(), element.R(100, 100, 250, 250))
	test.That(t, err, test.ShouldBeNil)
	var texts []string
	for _, el := range els {
		texts = append(texts, el.Text)
	}
	test.That(t, texts, test.ShouldResemble, []string{"right edge", "bottom edge"})
}

func TestStructuredSource_SmallNodesDropped(t *testing.T) {
	root := &Node{Role: "pane", Bounds: element.R(0, 0, 500, 500), Children: []*Node{
		{Role: "button", Bounds: element.R(10, 10, 15, 40), Text: "five wide"},
		{Role: "button", Bounds: element.R(10, 50, 16, 56), Text: "six"},
	}}
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), root: root}, StructuredConfig{}, nil)
	els, err := src.Detect(context.Background(), element.R(0, 0, 100, 100))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(els), test.ShouldEqual, 2)
	test.That(t, els[1].Text, test.ShouldEqual, "six")
}

func TestStructuredSource_DepthBound(t *testing.T) {
	// a chain 15 deep; only depths 0..10 are visited
	root := &Node{Role: "group", Bounds: element.R(0, 0, 100, 100)}
	cur := root
	for i := 0; i < 15; i++ {
		child := &Node{Role: "group", Bounds: element.R(0, 0, 100, 100)}
		cur.Children = []*Node{child}
		cur = child
	}
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), root: root}, StructuredConfig{}, nil)
	els, err := src.All(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(els), test.ShouldEqual, DefaultMaxDepth+1)

	src = NewStructuredSource(&fakeTree{window: chromeWindow(), root: root}, StructuredConfig{MaxDepth: 2}, nil)
	els, err = src.All(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(els), test.ShouldEqual, 3)
}

func TestStructuredSource_Unavailable(t *testing.T) {
	ctx := context.Background()
	src := NewStructuredSource(&fakeTree{window: Window{Title: "Calculator"}, root: sampleTree()}, StructuredConfig{}, nil)
	test.That(t, src.Available(ctx), test.ShouldBeFalse)

	_, err := src.Detect(ctx, element.R(0, 0, 100, 100))
	test.That(t, errors.Is(err, ErrSourceUnavailable), test.ShouldBeTrue)

	_, _, err = src.FocusedElement(ctx)
	test.That(t, errors.Is(err, ErrSourceUnavailable), test.ShouldBeTrue)

	noProvider := NewStructuredSource(nil, StructuredConfig{}, nil)
	test.That(t, noProvider.Available(ctx), test.ShouldBeFalse)
}

func TestStructuredSource_TreeError(t *testing.T) {
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), err: errors.New("uia timeout")}, StructuredConfig{}, nil)
	_, err := src.Detect(context.Background(), element.R(0, 0, 100, 100))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrSourceUnavailable), test.ShouldBeFalse)
	test.That(t, ComponentOf(src), test.ShouldEqual, "accessibility")
}

func TestStructuredSource_FocusedElement(t *testing.T) {
	tree := sampleTree()
	provider := &fakeTree{window: chromeWindow(), root: tree, focused: tree.Children[1].Children[1]}
	src := NewStructuredSource(provider, StructuredConfig{}, nil)

	el, ok, err := src.FocusedElement(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, el.Text, test.ShouldEqual, "Email")
	test.That(t, el.SourceID, test.ShouldEqual, element.SourceTabFocused)

	provider.focused = nil
	_, ok, err = src.FocusedElement(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestStructuredSource_ByRole(t *testing.T) {
	src := NewStructuredSource(&fakeTree{window: chromeWindow(), root: sampleTree()}, StructuredConfig{}, nil)
	ctx := context.Background()

	regions, err := src.ByRole(ctx, "region", "landmark", "main", "navigation")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(regions), test.ShouldEqual, 1)
	test.That(t, regions[0].Text, test.ShouldEqual, "Content")

	forms, err := src.ByRole(ctx, "textbox", "button", "checkbox", "radio", "combobox")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(forms), test.ShouldEqual, 2)
}

func TestBrowserName(t *testing.T) {
	for _, tc := range []struct {
		window Window
		want   string
	}{
		{Window{Title: "GitHub - Mozilla Firefox"}, "firefox"},
		{Window{Title: "Inbox - Microsoft Edge", Class: "Chrome_WidgetWin_1"}, "edge"},
		{Window{Title: "Untitled", Class: "Chrome_WidgetWin_1"}, "chrome"},
		{Window{Title: "Start Page", Class: "MozillaWindowClass"}, "firefox"},
		{Window{Title: "Brave Search - Brave"}, "brave"},
		{Window{Title: "Terminal"}, ""},
	} {
		test.That(t, BrowserName(tc.window), test.ShouldEqual, tc.want)
	}
}
