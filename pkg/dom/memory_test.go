package dom

import (
	"reflect"
	"testing"
)

func TestAppendChild(t *testing.T) {
	doc := NewDocument()
	div := doc.CreateElement("DIV")
	span := doc.CreateElement("span")

	if err := div.AppendChild(span); err != nil {
		t.Fatalf("AppendChild() error: %v", err)
	}
	if div.TagName() != "div" {
		t.Errorf("TagName() = %q, want div", div.TagName())
	}
	if span.Parent() != div {
		t.Error("span should be a child of div")
	}
	if got := len(div.ChildNodes()); got != 1 {
		t.Errorf("len(ChildNodes) = %d, want 1", got)
	}
}

func TestAppendChildMovesNode(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement("div")
	b := doc.CreateElement("div")
	child := doc.CreateTextNode("x")

	a.AppendChild(child)
	b.AppendChild(child)

	if len(a.ChildNodes()) != 0 {
		t.Error("child should have left its previous parent")
	}
	if child.Parent() != b {
		t.Error("child should be attached to b")
	}
}

func TestAppendChildHierarchy(t *testing.T) {
	doc := NewDocument()
	outer := doc.CreateElement("div")
	inner := doc.CreateElement("div")
	outer.AppendChild(inner)

	if err := inner.AppendChild(outer); err != ErrHierarchy {
		t.Errorf("cycle: err = %v, want ErrHierarchy", err)
	}
	if err := outer.AppendChild(outer); err != ErrHierarchy {
		t.Errorf("self: err = %v, want ErrHierarchy", err)
	}

	text := doc.CreateTextNode("t")
	if err := text.AppendChild(doc.CreateTextNode("u")); err != ErrHierarchy {
		t.Errorf("into text: err = %v, want ErrHierarchy", err)
	}
}

func TestRemoveChild(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("ul")
	child := doc.CreateElement("li")

	if err := parent.RemoveChild(child); err != ErrNotFound {
		t.Errorf("detached child: err = %v, want ErrNotFound", err)
	}

	parent.AppendChild(child)
	if err := parent.RemoveChild(child); err != nil {
		t.Fatalf("RemoveChild() error: %v", err)
	}
	if child.Parent() != nil {
		t.Error("child should be detached")
	}
}

func TestReplaceChildKeepsPosition(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("div")
	first := doc.CreateTextNode("1")
	old := doc.CreateTextNode("2")
	last := doc.CreateTextNode("3")
	parent.AppendChild(first)
	parent.AppendChild(old)
	parent.AppendChild(last)

	repl := doc.CreateTextNode("two")
	if err := parent.ReplaceChild(repl, old); err != nil {
		t.Fatalf("ReplaceChild() error: %v", err)
	}

	if got := parent.TextContent(); got != "1two3" {
		t.Errorf("TextContent() = %q, want 1two3", got)
	}
	if old.Parent() != nil {
		t.Error("old child should be detached")
	}
}

func TestReplaceChildWithSibling(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("div")
	a := doc.CreateTextNode("a")
	b := doc.CreateTextNode("b")
	c := doc.CreateTextNode("c")
	parent.AppendChild(a)
	parent.AppendChild(b)
	parent.AppendChild(c)

	if err := parent.ReplaceChild(a, c); err != nil {
		t.Fatalf("ReplaceChild() error: %v", err)
	}
	if got := parent.TextContent(); got != "ba" {
		t.Errorf("TextContent() = %q, want ba", got)
	}
}

func TestAttributes(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("a")
	el.SetAttribute("href", "/x")
	el.SetAttribute("class", "btn")
	el.SetAttribute("href", "/y")

	if got := el.AttributeNames(); !reflect.DeepEqual(got, []string{"href", "class"}) {
		t.Errorf("AttributeNames() = %v", got)
	}
	if v, ok := el.GetAttribute("href"); !ok || v != "/y" {
		t.Errorf("GetAttribute(href) = %q, %v", v, ok)
	}

	el.RemoveAttribute("href")
	el.RemoveAttribute("missing")
	if _, ok := el.GetAttribute("href"); ok {
		t.Error("href should be removed")
	}
	if got := el.AttributeNames(); !reflect.DeepEqual(got, []string{"class"}) {
		t.Errorf("AttributeNames() = %v", got)
	}
}

func TestValueProperty(t *testing.T) {
	doc := NewDocument()
	input := doc.CreateElement("input")
	input.SetAttribute("value", "initial")

	if input.Value() != "initial" {
		t.Errorf("Value() = %q, want attribute fallback", input.Value())
	}

	input.SetValue("typed")
	if input.Value() != "typed" {
		t.Errorf("Value() = %q, want typed", input.Value())
	}
	if v, _ := input.GetAttribute("value"); v != "initial" {
		t.Errorf("value attribute = %q, should be untouched", v)
	}
}

func TestContentEditable(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	if el.IsContentEditable() {
		t.Error("plain div should not be editable")
	}
	el.SetAttribute("contenteditable", "")
	if !el.IsContentEditable() {
		t.Error("empty contenteditable should be editable")
	}
	el.SetAttribute("contenteditable", "false")
	if el.IsContentEditable() {
		t.Error("contenteditable=false should not be editable")
	}
}

func TestSetTextContentOnElement(t *testing.T) {
	doc := NewDocument()
	p := doc.CreateElement("p")
	p.AppendChild(doc.CreateElement("b"))
	p.SetTextContent("hello")

	if p.InnerText() != "hello" {
		t.Errorf("InnerText() = %q", p.InnerText())
	}
	if n := len(p.ChildNodes()); n != 1 {
		t.Errorf("len(ChildNodes) = %d, want 1", n)
	}
}

func TestDataset(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("li")
	el.SetAttribute("data-drag", "item-4")
	if el.Dataset("drag") != "item-4" {
		t.Errorf("Dataset(drag) = %q", el.Dataset("drag"))
	}
}

func TestCreateElementNS(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElementNS(NamespaceSVG, "foreignObject")
	if el.TagName() != "foreignObject" {
		t.Errorf("TagName() = %q", el.TagName())
	}
	if el.Namespace() != NamespaceSVG {
		t.Errorf("Namespace() = %q", el.Namespace())
	}
}

func TestNodeTypeString(t *testing.T) {
	if ElementNode.String() != "Element" || TextNode.String() != "Text" || NodeType(9).String() != "Unknown" {
		t.Error("unexpected NodeType strings")
	}
}
