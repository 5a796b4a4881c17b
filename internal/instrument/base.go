package instrument

import (
	"fmt"
	"sort"
	"time"
)

// Connection is the transport surface an owner needs: send one command,
// receive one reply. Adapters and parent owners both satisfy it.
type Connection interface {
	Write(command string) error
	Read() (string, error)
}

// BinaryReader is implemented by connections that can answer a query with
// binary-block data instead of text.
type BinaryReader interface {
	ReadBinaryValues(command string) ([]float64, error)
}

// Logger defines the logging interface used by owners.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AccessOp identifies the direction of a property access.
type AccessOp string

const (
	OpGet AccessOp = "get"
	OpSet AccessOp = "set"
)

// Observer is invoked after every successful property access, with the
// user-facing value. Used by the recorder to capture property traffic.
type Observer func(op AccessOp, property string, value any)

// Base is the common implementation shared by Instrument and Channel: the
// property table, per-instance dynamic overrides, the child registry, and
// the request/reply helpers. It is always used embedded in an owner type.
//
// Base methods are not safe for concurrent use; an owner tree belongs to a
// single point of control (see the package documentation).
type Base struct {
	// conn carries property traffic. For an Instrument this is the
	// adapter; for a Channel it routes through the parent with the
	// channel id inserted.
	conn Connection

	// self is the outermost owner, handed to channel factories as the
	// parent of new children.
	self Connection

	queryDelay time.Duration

	properties map[string]Property
	overrides  map[string]any

	children    map[string]Child
	childMetas  map[string]childMeta
	collections map[string]map[string]Child

	errorChecker func() error
	observer     Observer
	logger       Logger
}

func newBase() Base {
	return Base{
		properties:  make(map[string]Property),
		overrides:   make(map[string]any),
		children:    make(map[string]Child),
		childMetas:  make(map[string]childMeta),
		collections: make(map[string]map[string]Child),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for this owner.
func (b *Base) SetLogger(logger Logger) {
	b.logger = logger
}

// SetObserver registers a hook invoked after every successful property
// access on this owner.
func (b *Base) SetObserver(observer Observer) {
	b.observer = observer
}

// SetErrorChecker registers the hook invoked by properties configured with
// WithCheckGetErrors or WithCheckSetErrors.
func (b *Base) SetErrorChecker(check func() error) {
	b.errorChecker = check
}

// SetQueryDelay sets the pause between writing a query and reading its
// reply. Zero (the default) reads immediately.
func (b *Base) SetQueryDelay(d time.Duration) {
	b.queryDelay = d
}

// Write sends a command over the owner's connection.
func (b *Base) Write(command string) error {
	b.logger.Debug("write", "command", command)
	return b.conn.Write(command)
}

// Read receives one reply from the owner's connection.
func (b *Base) Read() (string, error) {
	reply, err := b.conn.Read()
	if err != nil {
		return "", err
	}
	b.logger.Debug("read", "reply", reply)
	return reply, nil
}

// Ask writes a command and reads the reply, honouring the query delay.
func (b *Base) Ask(command string) (string, error) {
	if err := b.Write(command); err != nil {
		return "", err
	}
	b.waitFor()
	return b.Read()
}

func (b *Base) waitFor() {
	if b.queryDelay > 0 {
		time.Sleep(b.queryDelay)
	}
}

// Values asks a command and runs the reply through the coercion pipeline.
// Only the pipeline options (cast, separator, preprocess-reply) apply.
//
// Returns one entry per token; tokens whose cast fails are kept as raw
// strings.
func (b *Base) Values(command string, opts ...Option) ([]any, error) {
	o := buildOptions(opts)
	reply, err := b.Ask(command)
	if err != nil {
		return nil, err
	}
	return parseValues(reply, o.effectiveSeparator(), o.effectiveCast(), o.preprocessReply), nil
}

// BinaryValues asks a command over the connection's binary path. It is a
// direct pass-through to the connection's binary reader.
func (b *Base) BinaryValues(command string) ([]float64, error) {
	br, ok := b.conn.(BinaryReader)
	if !ok {
		return nil, ErrNoBinaryReader
	}
	return br.ReadBinaryValues(command)
}

// AddProperty registers a property under a name. Registering the same name
// again replaces the previous declaration; owner types that embed another
// owner type use this to change a property's defaults.
func (b *Base) AddProperty(name string, p Property) {
	b.properties[name] = p
}

// Properties returns the registered property names in sorted order.
func (b *Base) Properties() []string {
	names := make([]string, 0, len(b.properties))
	for name := range b.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasProperty reports whether a property is registered under the name.
func (b *Base) HasProperty(name string) bool {
	_, ok := b.properties[name]
	return ok
}

// Property returns the declaration registered under the name.
func (b *Base) Property(name string) (Property, bool) {
	p, ok := b.properties[name]
	return p, ok
}

// PropertyDoc returns the documentation of a registered property.
func (b *Base) PropertyDoc(name string) (string, error) {
	p, ok := b.properties[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return p.Doc(), nil
}

// Override shadows one configuration field of a dynamic property on this
// owner only. Other owners registered with the same property declaration
// keep the declared behaviour.
//
// Parameters:
//   - property: registered property name
//   - field: one of the Field* constants
//   - value: the replacement; its type must match the field
//
// Returns:
//   - error: ErrUnknownProperty, ErrStaticProperty or ErrInvalidOverride
func (b *Base) Override(property, field string, value any) error {
	p, ok := b.properties[property]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}
	if !p.opts.dynamic {
		return fmt.Errorf("%w: %s", ErrStaticProperty, property)
	}
	normalized, err := normalizeOverride(field, value)
	if err != nil {
		return err
	}
	b.overrides[property+"_"+field] = normalized
	return nil
}

// ClearOverride removes a per-owner override, restoring the declared
// default for that field.
func (b *Base) ClearOverride(property, field string) {
	delete(b.overrides, property+"_"+field)
}

// normalizeOverride validates an override value and converts bare function
// literals to the named hook types.
func normalizeOverride(field string, value any) (any, error) {
	switch field {
	case FieldValidator:
		switch v := value.(type) {
		case Validator:
			return v, nil
		case func(any, any) (any, error):
			return Validator(v), nil
		}
	case FieldValues:
		return value, nil
	case FieldMapValues, FieldCheckGetErrors, FieldCheckSetErrors:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case FieldCast:
		switch v := value.(type) {
		case Cast:
			return v, nil
		case func(string) (any, error):
			return Cast(v), nil
		}
	case FieldGetProcess, FieldSetProcess:
		switch v := value.(type) {
		case Process:
			return v, nil
		case func(any) any:
			return Process(v), nil
		}
	case FieldSeparator:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case FieldPreprocessReply:
		switch v := value.(type) {
		case Preprocessor:
			return v, nil
		case func(string) string:
			return Preprocessor(v), nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidOverride, field)
	}
	return nil, fmt.Errorf("%w: wrong type %T for field %q", ErrInvalidOverride, value, field)
}

// resolve returns the effective configuration for one access: the declared
// options with this owner's overrides applied. Static properties never
// consult instance state.
func (b *Base) resolve(name string, p Property) options {
	o := p.opts
	if !o.dynamic {
		return o
	}
	if v, ok := b.overrides[name+"_"+FieldValidator]; ok {
		o.validator = v.(Validator)
	}
	if v, ok := b.overrides[name+"_"+FieldValues]; ok {
		o.values = v
	}
	if v, ok := b.overrides[name+"_"+FieldMapValues]; ok {
		o.mapValues = v.(bool)
	}
	if v, ok := b.overrides[name+"_"+FieldCast]; ok {
		o.cast = v.(Cast)
	}
	if v, ok := b.overrides[name+"_"+FieldGetProcess]; ok {
		o.getProcess = v.(Process)
	}
	if v, ok := b.overrides[name+"_"+FieldSetProcess]; ok {
		o.setProcess = v.(Process)
	}
	if v, ok := b.overrides[name+"_"+FieldCheckGetErrors]; ok {
		o.checkGetErrors = v.(bool)
	}
	if v, ok := b.overrides[name+"_"+FieldCheckSetErrors]; ok {
		o.checkSetErrors = v.(bool)
	}
	if v, ok := b.overrides[name+"_"+FieldSeparator]; ok {
		o.separator = v.(string)
	}
	if v, ok := b.overrides[name+"_"+FieldPreprocessReply]; ok {
		o.preprocessReply = v.(Preprocessor)
	}
	return o
}

func (o options) effectiveCast() Cast {
	if o.cast == nil {
		return CastFloat
	}
	return o.cast
}

func (o options) effectiveSeparator() string {
	if o.separator == "" {
		return ","
	}
	return o.separator
}

// Get reads a property: format and send the get command, run the reply
// through the coercion pipeline (split, cast, unmap, get-process) and
// return the typed value. Single-token replies yield a scalar; multi-token
// replies yield a []any.
func (b *Base) Get(name string) (any, error) {
	p, ok := b.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	o := b.resolve(name, p)

	if !p.readable {
		if p.writable {
			return nil, fmt.Errorf("%w: %s", ErrNotReadable, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnreadableAttribute, name)
	}

	reply, err := b.Ask(p.getCommand)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	vals := parseValues(reply, o.effectiveSeparator(), o.effectiveCast(), o.preprocessReply)
	if o.mapValues {
		for i := range vals {
			vals[i], err = unmapValue(vals[i], o.values)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
		}
	}

	var value any
	if len(vals) == 1 {
		value = vals[0]
	} else {
		value = vals
	}
	if o.getProcess != nil {
		value = o.getProcess(value)
	}

	if o.checkGetErrors && b.errorChecker != nil {
		if err := b.errorChecker(); err != nil {
			return nil, fmt.Errorf("after reading %s: %w", name, err)
		}
	}

	if b.observer != nil {
		b.observer(OpGet, name, value)
	}
	return value, nil
}

// Set writes a property: run the inverse pipeline (set-process, validate,
// map) on the value, format the set command and send it. Pass a []any for
// multi-verb set commands such as "%d,%d".
func (b *Base) Set(name string, value any) error {
	p, ok := b.properties[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	o := b.resolve(name, p)

	if !p.writable {
		if p.readable {
			return fmt.Errorf("%w: %s", ErrNotWritable, name)
		}
		return fmt.Errorf("%w: %s", ErrUnwritableAttribute, name)
	}

	v := value
	if o.setProcess != nil {
		v = o.setProcess(v)
	}
	if o.validator != nil {
		var err error
		v, err = o.validator(v, o.values)
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	// The observer reports the user-facing value, not the wire-level one
	// a value map turns it into.
	facing := v
	if o.mapValues {
		var err error
		v, err = mapValue(v, o.values)
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	if err := b.Write(formatCommand(p.setCommand, v)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	if o.checkSetErrors && b.errorChecker != nil {
		if err := b.errorChecker(); err != nil {
			return fmt.Errorf("after writing %s: %w", name, err)
		}
	}

	if b.observer != nil {
		b.observer(OpSet, name, facing)
	}
	return nil
}

// GetFloat reads a property and coerces the result to float64.
func (b *Base) GetFloat(name string) (float64, error) {
	v, err := b.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("property %s: value %v is not numeric", name, v)
	}
	return f, nil
}

// GetInt reads a property and coerces the result to int.
func (b *Base) GetInt(name string) (int, error) {
	f, err := b.GetFloat(name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// GetBool reads a property and coerces the result to bool. Numeric results
// follow the usual instrument convention: zero is false.
func (b *Base) GetBool(name string) (bool, error) {
	v, err := b.Get(name)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	default:
		if f, ok := toFloat(v); ok {
			return f != 0, nil
		}
	}
	return false, fmt.Errorf("property %s: value %v is not a bool", name, v)
}

// GetString reads a property and renders the result as a string.
func (b *Base) GetString(name string) (string, error) {
	v, err := b.Get(name)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}
