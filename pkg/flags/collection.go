package flags

import (
	"fmt"
	"slices"

	"github.com/flagkit/flagkit/pkg/keypath"
)

// Collection is a named group of flags and nested collections. Each
// collection contributes one path segment at its nesting level unless its
// strategy is Skip; the loader's root collection contributes none, since
// it is the container the whole tree hangs from.
type Collection struct {
	name     string
	meta     Metadata
	strategy keypath.Strategy
	children []Node

	loader   *Loader
	segments []keypath.Segment
}

// CollectionOption configures a Collection at construction.
type CollectionOption func(*Collection)

// WithCollectionMeta attaches descriptive metadata to the collection.
func WithCollectionMeta(m Metadata) CollectionOption {
	return func(c *Collection) { c.meta = m }
}

// WithStrategy overrides how the collection's segment appears in composed
// keys: forced kebab or snake case, a fixed custom name, or Skip to
// contribute no segment at all.
func WithStrategy(s keypath.Strategy) CollectionOption {
	return func(c *Collection) { c.strategy = s }
}

// NewCollection declares a flag group with the given unqualified name.
func NewCollection(name string, opts ...CollectionOption) *Collection {
	c := &Collection{
		name:     name,
		strategy: keypath.Inherit(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the collection's declared, unqualified name.
func (c *Collection) Name() string { return c.name }

// Meta returns the collection's descriptive metadata.
func (c *Collection) Meta() Metadata { return c.meta }

// Add registers child nodes. Registration is explicit: a node only joins
// the tree, and therefore the wiring pass, when it is added here.
// Add panics once the collection is wired, since the segment lists handed
// out during wiring would go stale.
func (c *Collection) Add(nodes ...Node) *Collection {
	if c.loader != nil {
		panic(fmt.Sprintf("flags: cannot add to collection %q after wiring", c.name))
	}
	c.children = append(c.children, nodes...)
	return c
}

// Children returns the collection's direct children: its flags plus any
// nested collections as opaque nodes. This is the one-level-at-a-time view
// for hierarchical navigation; use Flags for exhaustive iteration.
func (c *Collection) Children() []Node {
	return slices.Clone(c.children)
}

// Flags returns every flag reachable from this collection in depth-first,
// pre-order declaration order, descending through nested collections.
func (c *Collection) Flags() []Handle {
	var out []Handle
	c.collectFlags(&out)
	return out
}

func (c *Collection) collectFlags(into *[]Handle) {
	for _, child := range c.children {
		child.collectFlags(into)
	}
}

func (c *Collection) wire(l *Loader, ancestors []keypath.Segment) error {
	if c.loader != nil {
		return fmt.Errorf("%w: collection %q", ErrAlreadyWired, c.name)
	}
	if c.name == "" {
		return ErrEmptyName
	}
	c.loader = l
	c.segments = append(slices.Clone(ancestors),
		keypath.Segment{Name: c.name, Strategy: c.strategy})
	for _, child := range c.children {
		if err := child.wire(l, c.segments); err != nil {
			return err
		}
	}
	return nil
}

// wireAsRoot wires the collection as a loader's root. The root contributes
// no path segment of its own; its children start with an empty ancestor
// list.
func (c *Collection) wireAsRoot(l *Loader) error {
	if c.loader != nil {
		return fmt.Errorf("%w: collection %q", ErrAlreadyWired, c.name)
	}
	if c.name == "" {
		return ErrEmptyName
	}
	c.loader = l
	c.segments = nil
	for _, child := range c.children {
		if err := child.wire(l, nil); err != nil {
			return err
		}
	}
	return nil
}
