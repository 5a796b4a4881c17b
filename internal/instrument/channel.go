package instrument

import "strings"

// Factory builds a child from its parent connection and channel id.
// NewChannel is the usual factory; owner packages wrap it to construct
// richer channel types.
type Factory func(parent Connection, id string) Child

// Channel is an owner addressed through its parent. Commands written by a
// channel pass through the parent connection with the channel id spliced
// into the placeholder, so "SOUR{ch}:VOLT %g" on channel "2" reaches the
// device as "SOUR2:VOLT %g".
type Channel struct {
	Base

	id          string
	placeholder string
}

// ChannelOption configures a new channel.
type ChannelOption func(*Channel)

// WithPlaceholder changes the token substituted with the channel id.
// The default is "ch"; a channel with placeholder "fn" replaces "{fn}".
// Distinct placeholders let nested channels address both levels in one
// command.
func WithPlaceholder(name string) ChannelOption {
	return func(c *Channel) {
		c.placeholder = name
	}
}

// NewChannel builds a channel attached to a parent connection.
func NewChannel(parent Connection, id string, opts ...ChannelOption) *Channel {
	c := &Channel{
		Base:        newBase(),
		id:          id,
		placeholder: "ch",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.conn = channelTransport{parent: parent, ch: c}
	c.self = &c.Base
	return c
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return c.id
}

// InsertID splices the channel id into every occurrence of the channel's
// placeholder. Commands without the placeholder pass through unchanged.
func (c *Channel) InsertID(command string) string {
	return strings.ReplaceAll(command, "{"+c.placeholder+"}", c.id)
}

// channelTransport routes a channel's traffic through its parent, inserting
// the channel id on the way out. Binary reads delegate when the parent
// supports them.
type channelTransport struct {
	parent Connection
	ch     *Channel
}

func (t channelTransport) Write(command string) error {
	return t.parent.Write(t.ch.InsertID(command))
}

func (t channelTransport) Read() (string, error) {
	return t.parent.Read()
}

func (t channelTransport) ReadBinaryValues(command string) ([]float64, error) {
	br, ok := t.parent.(BinaryReader)
	if !ok {
		return nil, ErrNoBinaryReader
	}
	return br.ReadBinaryValues(t.ch.InsertID(command))
}

// ChannelCreator declares a group of channels on an owner type. Owners
// collect their declarations in a map[string]ChannelCreator keyed by
// collection name and pass it to CreateChannels.
type ChannelCreator struct {
	factories []Factory
	ids       []string
	prefix    string
	single    bool
}

// CreatorOption configures a channel declaration.
type CreatorOption func(*ChannelCreator)

// WithPrefix sets the attribute name prefix for the group's channels.
// The default is "ch_".
func WithPrefix(prefix string) CreatorOption {
	return func(c *ChannelCreator) {
		c.prefix = prefix
	}
}

// NewChannelCreator declares a group of channels sharing one factory,
// one per id.
func NewChannelCreator(factory Factory, ids []string, opts ...CreatorOption) ChannelCreator {
	c := ChannelCreator{ids: ids}
	c.factories = make([]Factory, len(ids))
	for i := range ids {
		c.factories[i] = factory
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewChannelCreatorPairs declares a group where each id gets its own
// factory, for owners mixing channel types in one collection. The two
// slices must have equal length.
func NewChannelCreatorPairs(factories []Factory, ids []string, opts ...CreatorOption) ChannelCreator {
	c := ChannelCreator{factories: factories, ids: ids}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewSingleChannelCreator declares one channel attached directly under the
// declaration's name, with no collection or prefix.
func NewSingleChannelCreator(factory Factory) ChannelCreator {
	return ChannelCreator{factories: []Factory{factory}, single: true}
}

func (c ChannelCreator) validate() error {
	if c.single {
		if len(c.factories) != 1 {
			return ErrInvalidCreator
		}
		return nil
	}
	if len(c.factories) == 0 {
		return ErrInvalidCreator
	}
	if len(c.factories) != len(c.ids) {
		return ErrCreatorLengths
	}
	return nil
}
