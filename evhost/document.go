package evhost

import (
	"slices"
	"strings"
	"sync"

	"github.com/joeycumines/go-framesched"
)

// Document is an in-memory host document, a set of elements addressed by
// id. It is safe for concurrent use.
type Document struct {
	elements map[string]*Element
	order    []string
	mu       sync.RWMutex
}

// Element is a live element with line-oriented text content. It is safe
// for concurrent use, though only a patcher should mutate it.
type Element struct {
	id    string
	lines []string
	mu    sync.RWMutex
}

var _ framesched.Document = (*Document)(nil)

// NewDocument returns a document containing an empty element per id.
func NewDocument(ids ...string) *Document {
	x := &Document{elements: make(map[string]*Element)}
	for _, id := range ids {
		x.Append(id)
	}
	return x
}

// Append adds an empty element, returning the existing element if the id is
// already present.
func (x *Document) Append(id string) *Element {
	x.mu.Lock()
	defer x.mu.Unlock()
	if el, ok := x.elements[id]; ok {
		return el
	}
	el := &Element{id: id}
	x.elements[id] = el
	x.order = append(x.order, id)
	return el
}

// Element returns the element with the given id, or nil.
func (x *Document) Element(id string) *Element {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.elements[id]
}

// GetElementByID implements [framesched.Document]. The element is an
// *[Element].
func (x *Document) GetElementByID(id string) (framesched.Element, bool) {
	if el := x.Element(id); el != nil {
		return el, true
	}
	return nil, false
}

// Render returns the content of every element, in insertion order, each
// preceded by a "#id" header line.
func (x *Document) Render() string {
	x.mu.RLock()
	elements := make([]*Element, len(x.order))
	for i, id := range x.order {
		elements[i] = x.elements[id]
	}
	x.mu.RUnlock()

	var b strings.Builder
	for _, el := range elements {
		b.WriteString("#")
		b.WriteString(el.id)
		b.WriteString("\n")
		for _, line := range el.Lines() {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ID returns the element id.
func (x *Element) ID() string {
	return x.id
}

// SetLine sets line i, growing the content with empty lines as required.
func (x *Element) SetLine(i int, text string) {
	if i < 0 {
		panic("evhost: negative line index")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for len(x.lines) <= i {
		x.lines = append(x.lines, "")
	}
	x.lines[i] = text
}

// Truncate drops all lines from n onwards.
func (x *Element) Truncate(n int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if n < len(x.lines) {
		x.lines = x.lines[:max(n, 0)]
	}
}

// Lines returns a copy of the content.
func (x *Element) Lines() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return slices.Clone(x.lines)
}

// Text returns the content joined by newlines.
func (x *Element) Text() string {
	return strings.Join(x.Lines(), "\n")
}
