package component

import (
	"errors"
	"testing"

	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/vdom"
)

type card struct {
	Title  string
	Photos []string
}

func cardTemplate(c card) *vdom.VNode {
	return vdom.Article(vdom.Class("card"),
		vdom.H2(vdom.Bind("title"), c.Title),
		vdom.Div(vdom.Bind("photos"),
			vdom.ListOr(c.Photos, func(src string, _ int) *vdom.VNode {
				return vdom.Img(vdom.Bind("photo"), vdom.Src(src))
			}, vdom.Span(vdom.Bind("no-photos"), "no photos")),
		),
		vdom.Div(vdom.Bind("slot")),
	)
}

func TestElementCacheIdempotent(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{Title: "Meetup"})
	if err := Mount(c, doc.Body(), dom.Append); err != nil {
		t.Fatal(err)
	}

	first, err := c.Element("title")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Element("title")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second lookup returned a different element")
	}
	if c.resolves != 1 {
		t.Errorf("resolves = %d, want 1", c.resolves)
	}
	if first.TextContent() != "Meetup" {
		t.Errorf("title = %q", first.TextContent())
	}
}

func TestElementBeforeRender(t *testing.T) {
	c := New(cardTemplate, card{})
	if _, err := c.Element("title"); !errors.Is(err, ErrNotRendered) {
		t.Errorf("err = %v, want ErrNotRendered", err)
	}
	if _, err := c.Elements("photo"); !errors.Is(err, ErrNotRendered) {
		t.Errorf("Elements err = %v, want ErrNotRendered", err)
	}
}

func TestElementNotFound(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{})
	Mount(c, doc.Body(), dom.Append)

	_, err := c.Element("missing")
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
	var ee *ElementError
	if !errors.As(err, &ee) || ee.Name != "missing" {
		t.Errorf("ElementError = %+v", ee)
	}
}

func TestElementScopedToComponent(t *testing.T) {
	doc := dom.NewDocument()
	doc.Body().Mount(vdom.H2(vdom.Bind("title"), "outside"), dom.Append)

	c := New(cardTemplate, card{Title: "inside"})
	Mount(c, doc.Body(), dom.Append)

	el, err := c.Element("title")
	if err != nil {
		t.Fatal(err)
	}
	if el.TextContent() != "inside" {
		t.Errorf("resolved %q, want the component's own element", el.TextContent())
	}
}

func TestEmptyListPlaceholder(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{})
	Mount(c, doc.Body(), dom.Append)

	if _, err := c.Element("no-photos"); err != nil {
		t.Errorf("placeholder missing: %v", err)
	}
	photos, _ := c.Elements("photo")
	if len(photos) != 0 {
		t.Errorf("photos = %d, want 0", len(photos))
	}

	c.Destructor()
	c.SetData(card{Photos: []string{"a.png", "b.png"}})
	Mount(c, doc.Body(), dom.Append)
	photos, _ = c.Elements("photo")
	if len(photos) != 2 {
		t.Errorf("photos = %d, want 2", len(photos))
	}
}

func TestRenderTwiceRejected(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{})
	if err := c.Render(doc.Body(), dom.Append); err != nil {
		t.Fatal(err)
	}
	if err := c.Render(doc.Body(), dom.Append); !errors.Is(err, ErrAlreadyRendered) {
		t.Errorf("err = %v, want ErrAlreadyRendered", err)
	}
	if n := len(doc.Body().Children()); n != 1 {
		t.Errorf("body children = %d, want 1", n)
	}
}

func TestRenderErrors(t *testing.T) {
	if err := New(cardTemplate, card{}).Render(nil, dom.Append); !errors.Is(err, ErrNilParent) {
		t.Errorf("nil parent err = %v", err)
	}
	var b Base[card]
	if err := b.Render(dom.NewDocument().Body(), dom.Append); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("no template err = %v", err)
	}
}

func TestRerenderGivesFreshReferences(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{Title: "one"})
	Mount(c, doc.Body(), dom.Append)
	before, _ := c.Element("title")

	c.Destructor()
	if before.IsConnected() {
		t.Error("old element still connected after Destructor")
	}
	if _, err := c.Element("title"); !errors.Is(err, ErrNotRendered) {
		t.Errorf("lookup after Destructor: %v", err)
	}

	c.SetData(card{Title: "two"})
	if err := Mount(c, doc.Body(), dom.Append); err != nil {
		t.Fatal(err)
	}
	after, _ := c.Element("title")
	if after == before {
		t.Error("re-render returned the stale reference")
	}
	if after.TextContent() != "two" {
		t.Errorf("title = %q, want two", after.TextContent())
	}
}

func TestStaleCacheEntryReResolved(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{Title: "one"})
	Mount(c, doc.Body(), dom.Append)

	old, _ := c.Element("title")
	fresh := doc.Build(vdom.H2(vdom.Bind("title"), "new"))[0]
	old.Parent().ReplaceChild(old, fresh)

	got, err := c.Element("title")
	if err != nil {
		t.Fatal(err)
	}
	if got != fresh {
		t.Errorf("got %v, want the replacement element", got)
	}
}

type shaped struct {
	Base[card]
	raw       map[string]string
	didRender func() error
}

func (s *shaped) BeforeRender() error {
	title, ok := s.raw["title"]
	if err := Require("title", ok); err != nil {
		return err
	}
	s.SetData(card{Title: title})
	return nil
}

func (s *shaped) DidRender() error {
	if s.didRender != nil {
		return s.didRender()
	}
	return nil
}

func TestMountMissingFieldMountsNothing(t *testing.T) {
	doc := dom.NewDocument()
	s := &shaped{raw: map[string]string{}}
	s.Init(cardTemplate, card{})

	err := Mount(s, doc.Body(), dom.Append)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "title" {
		t.Fatalf("err = %v, want FieldError for title", err)
	}
	if !errors.Is(err, ErrMissingField) {
		t.Error("FieldError should unwrap to ErrMissingField")
	}
	if len(doc.Body().Children()) != 0 || s.Phase() != Idle {
		t.Error("failed BeforeRender left the component mounted")
	}
}

func TestMountRollsBackOnDidRenderError(t *testing.T) {
	doc := dom.NewDocument()
	boom := errors.New("boom")
	s := &shaped{raw: map[string]string{"title": "x"}}
	s.Init(cardTemplate, card{})
	s.didRender = func() error {
		btn, _ := s.Element("title")
		s.AddEventHandler(btn, "click", func(*dom.Event) {})
		return boom
	}

	if err := Mount(s, doc.Body(), dom.Append); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(doc.Body().Children()) != 0 {
		t.Error("subtree left in the document")
	}
	if doc.ListenerCount() != 0 {
		t.Errorf("listeners = %d, want 0", doc.ListenerCount())
	}
}

func TestAttachChildDestroyedWithParent(t *testing.T) {
	doc := dom.NewDocument()
	parent := New(cardTemplate, card{Title: "parent"})
	Mount(parent, doc.Body(), dom.Append)

	child := New(func(s string) *vdom.VNode { return vdom.Span(vdom.Bind("child"), s) }, "nested")
	if err := parent.Attach(child, "slot", dom.Append); err != nil {
		t.Fatal(err)
	}
	btn, _ := child.Element("child")
	child.AddEventHandler(btn, "click", func(*dom.Event) {})

	slot, _ := parent.Element("slot")
	if slot.TextContent() != "nested" {
		t.Errorf("slot = %q", slot.TextContent())
	}

	parent.Destructor()
	if child.Rendered() {
		t.Error("child still rendered after parent Destructor")
	}
	if doc.ListenerCount() != 0 {
		t.Errorf("listeners = %d, want 0", doc.ListenerCount())
	}
}

func TestAttachUnknownSlot(t *testing.T) {
	doc := dom.NewDocument()
	parent := New(cardTemplate, card{})
	Mount(parent, doc.Body(), dom.Append)
	child := New(func(string) *vdom.VNode { return vdom.Span() }, "")

	if err := parent.Attach(child, "nope", dom.Append); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
	if len(parent.Children()) != 0 {
		t.Error("child recorded despite failure")
	}
}

func TestGuard(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{})
	if c.Guard()() {
		t.Error("guard taken before Render should be false")
	}

	Mount(c, doc.Body(), dom.Append)
	alive := c.Guard()
	if !alive() {
		t.Fatal("guard should be true while rendered")
	}
	c.Destructor()
	if alive() {
		t.Error("guard should be false after Destructor")
	}
	Mount(c, doc.Body(), dom.Append)
	if alive() {
		t.Error("guard from an earlier rendering should stay false")
	}
}

func TestDestructorIdempotent(t *testing.T) {
	doc := dom.NewDocument()
	c := New(cardTemplate, card{})
	Mount(c, doc.Body(), dom.Append)
	c.Destructor()
	c.Destructor()
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
}

func TestViewReplaces(t *testing.T) {
	doc := dom.NewDocument()
	v := NewView(doc.Body())
	v.Show(vdom.P("loading"))
	v.Show(vdom.P("error"))
	if got := doc.Body().TextContent(); got != "error" {
		t.Errorf("body = %q, want error", got)
	}
	v.Clear()
	if len(doc.Body().Children()) != 0 {
		t.Error("Clear left children")
	}
	if _, err := NewView(nil).Show(vdom.P()); !errors.Is(err, ErrNilParent) {
		t.Errorf("nil container err = %v", err)
	}
}
