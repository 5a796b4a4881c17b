package instrument

// Override field names for dynamic properties. An override is stored per
// owner instance under the key "<property>_<field>", mirroring the command
// set documented for Base.Override.
const (
	FieldValidator       = "validator"
	FieldValues          = "values"
	FieldMapValues       = "map_values"
	FieldCast            = "cast"
	FieldGetProcess      = "get_process"
	FieldSetProcess      = "set_process"
	FieldCheckGetErrors  = "check_get_errors"
	FieldCheckSetErrors  = "check_set_errors"
	FieldSeparator       = "separator"
	FieldPreprocessReply = "preprocess_reply"
)

// options holds the coercion-pipeline configuration shared by all three
// property shapes. The zero value means: no validation, no mapping, default
// cast (float), default separator (","), no processing hooks.
type options struct {
	validator       Validator
	values          any
	mapValues       bool
	cast            Cast
	getProcess      Process
	setProcess      Process
	checkGetErrors  bool
	checkSetErrors  bool
	separator       string
	preprocessReply Preprocessor
	dynamic         bool
}

// Option configures a property built by Control, Measurement or Setting.
type Option func(*options)

// WithValidator sets the validator applied to every write.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithValues sets the allowed-values spec, a ValueSet or ValueMap. It
// serves both as the validator domain and, with WithMappedValues, as the
// value map.
func WithValues(values any) Option {
	return func(o *options) { o.values = values }
}

// WithMappedValues enables translation between user-facing values and
// wire-level values through the values spec.
func WithMappedValues() Option {
	return func(o *options) { o.mapValues = true }
}

// WithCast sets the per-token cast used on replies. Default is CastFloat.
func WithCast(c Cast) Option {
	return func(o *options) { o.cast = c }
}

// WithGetProcess sets a hook applied to the value after reading.
func WithGetProcess(p Process) Option {
	return func(o *options) { o.getProcess = p }
}

// WithSetProcess sets a hook applied to the value before validation.
func WithSetProcess(p Process) Option {
	return func(o *options) { o.setProcess = p }
}

// WithCheckGetErrors invokes the owner's error checker after every read.
func WithCheckGetErrors() Option {
	return func(o *options) { o.checkGetErrors = true }
}

// WithCheckSetErrors invokes the owner's error checker after every write.
func WithCheckSetErrors() Option {
	return func(o *options) { o.checkSetErrors = true }
}

// WithSeparator sets the token separator for replies. Default is ",".
func WithSeparator(sep string) Option {
	return func(o *options) { o.separator = sep }
}

// WithPreprocessReply sets a hook applied to the whole raw reply before it
// is split into tokens.
func WithPreprocessReply(p Preprocessor) Option {
	return func(o *options) { o.preprocessReply = p }
}

// Dynamic marks the property as override-capable: owners may shadow its
// configuration fields per instance via Base.Override.
func Dynamic() Option {
	return func(o *options) { o.dynamic = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Property is an immutable descriptor for one instrument property. It is
// built once by a factory (Control, Measurement, Setting) and registered on
// any number of owners; per-owner state lives in the owner, never here.
type Property struct {
	getCommand string
	setCommand string
	doc        string
	readable   bool
	writable   bool
	opts       options
}

// Control builds a read/write property. The get command is sent verbatim
// (after channel-id insertion); the set command is a fmt template filled
// with the outgoing value.
func Control(getCommand, setCommand, doc string, opts ...Option) Property {
	return Property{
		getCommand: getCommand,
		setCommand: setCommand,
		doc:        doc,
		readable:   true,
		writable:   true,
		opts:       buildOptions(opts),
	}
}

// Measurement builds a read-only property. Writing it fails with
// ErrNotWritable.
func Measurement(getCommand, doc string, opts ...Option) Property {
	return Property{
		getCommand: getCommand,
		doc:        doc,
		readable:   true,
		opts:       buildOptions(opts),
	}
}

// Setting builds a write-only property. Reading it fails with
// ErrNotReadable.
func Setting(setCommand, doc string, opts ...Option) Property {
	return Property{
		setCommand: setCommand,
		doc:        doc,
		writable:   true,
		opts:       buildOptions(opts),
	}
}

// Doc returns the property documentation, suffixed with " (dynamic)" for
// override-capable properties.
func (p Property) Doc() string {
	if p.opts.dynamic {
		return p.doc + " (dynamic)"
	}
	return p.doc
}

// IsDynamic reports whether the property accepts per-owner overrides.
func (p Property) IsDynamic() bool {
	return p.opts.dynamic
}

// Readable reports whether the property has a get command.
func (p Property) Readable() bool {
	return p.readable
}

// Writable reports whether the property has a set command.
func (p Property) Writable() bool {
	return p.writable
}
