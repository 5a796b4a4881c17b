package instrument

import (
	"fmt"
	"sort"
)

// Child is anything an owner can hold in its child registry. Channels are
// the usual children, but any owner-like value qualifies.
type Child interface {
	ID() string
}

// childMeta records how a child was attached so removal can tell declared
// channels from ones added at runtime.
type childMeta struct {
	child      Child
	collection string
	protected  bool
}

// Child returns a single child by its attribute name. For grouped channels
// the name is "<collection>_<id>"; for single children it is the name the
// child was attached under.
func (b *Base) Child(name string) (Child, error) {
	m, ok := b.childIndex()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChild, name)
	}
	return m.child, nil
}

// Collection returns a named channel group keyed by channel id. The map is
// the live registry; callers must not add or remove entries.
func (b *Base) Collection(name string) (map[string]Child, error) {
	coll, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", ErrUnknownChild, name)
	}
	return coll, nil
}

// childIndex lazily maps attribute names to metadata.
func (b *Base) childIndex() map[string]childMeta {
	if b.children == nil {
		b.children = make(map[string]Child)
	}
	if b.childMetas == nil {
		b.childMetas = make(map[string]childMeta)
	}
	return b.childMetas
}

// AddChild creates a child through a factory and files it under a
// collection. The attribute name is prefix+id. Children added this way are
// removable; children materialized by CreateChannels are not.
//
// Parameters:
//   - factory: builds the child from this owner and the id
//   - id: channel identifier, inserted into commands via the placeholder
//   - collection: group name (default "channels")
//   - prefix: attribute name prefix (default "ch_")
//
// Returns:
//   - Child: the new child
//   - error: ErrChildExists if the attribute name is taken
func (b *Base) AddChild(factory Factory, id, collection, prefix string) (Child, error) {
	return b.addChild(factory, id, collection, prefix, false)
}

// AddSingleChild attaches one child directly under an attribute name with
// no collection, for owners with exactly one channel of a kind.
func (b *Base) AddSingleChild(factory Factory, name string) (Child, error) {
	if _, taken := b.childIndex()[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrChildExists, name)
	}
	if _, taken := b.collections[name]; taken {
		return nil, fmt.Errorf("%w: collection %s", ErrChildExists, name)
	}
	child := factory(b.self, "")
	b.childIndex()[name] = childMeta{child: child}
	b.children[name] = child
	return child, nil
}

func (b *Base) addChild(factory Factory, id, collection, prefix string, protected bool) (Child, error) {
	if collection == "" {
		collection = "channels"
	}
	if prefix == "" {
		prefix = "ch_"
	}
	name := prefix + id
	if _, taken := b.childIndex()[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrChildExists, name)
	}
	child := factory(b.self, id)
	b.childIndex()[name] = childMeta{child: child, collection: collection, protected: protected}
	b.children[name] = child
	if b.collections[collection] == nil {
		b.collections[collection] = make(map[string]Child)
	}
	b.collections[collection][id] = child
	return child, nil
}

// RemoveChild detaches a child added with AddChild or AddSingleChild.
// Channels declared on the owner type (materialized by CreateChannels)
// cannot be removed.
func (b *Base) RemoveChild(name string) error {
	m, ok := b.childIndex()[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChild, name)
	}
	if m.protected {
		return fmt.Errorf("%w: %s", ErrProtectedChild, name)
	}
	delete(b.childMetas, name)
	delete(b.children, name)
	if m.collection != "" {
		// The collection stays behind as an empty map once its last
		// member is removed.
		if coll := b.collections[m.collection]; coll != nil {
			delete(coll, m.child.ID())
		}
	}
	return nil
}

// CreateChannels materializes a set of channel declarations on this owner.
// Owner types call it once from their constructor with the creators they
// declare; embedding owners merge their own map over the embedded one
// before calling, so a redeclared name replaces the inherited creator.
//
// Channels created here are protected: RemoveChild refuses them.
func (b *Base) CreateChannels(creators map[string]ChannelCreator) error {
	names := make([]string, 0, len(creators))
	for name := range creators {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := creators[name]
		if err := c.validate(); err != nil {
			return fmt.Errorf("channel declaration %s: %w", name, err)
		}
		if c.single {
			if _, err := b.addSingleProtected(c.factories[0], name); err != nil {
				return err
			}
			continue
		}
		collection := name
		for i, id := range c.ids {
			if _, err := b.addChild(c.factories[i], id, collection, c.prefix, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Base) addSingleProtected(factory Factory, name string) (Child, error) {
	if _, taken := b.childIndex()[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrChildExists, name)
	}
	child := factory(b.self, "")
	b.childIndex()[name] = childMeta{child: child, protected: true}
	b.children[name] = child
	return child, nil
}
