// Package instrument provides the core property framework for bench-core.
//
// It models test-and-measurement equipment as a tree of owners: an
// Instrument at the root, bound to a transport connection, and any number
// of Channel children addressed through command placeholders. Owners expose
// typed, validated properties backed by a textual request/response
// protocol.
//
// # Properties
//
// Properties are declared once with the Control, Measurement and Setting
// factories and registered on an owner by name:
//
//	inst.AddProperty("voltage", instrument.Control(
//	    "VOLT?", "VOLT %g", "Output voltage in volts.",
//	    instrument.WithValidator(instrument.StrictRange),
//	    instrument.WithValues(instrument.ValueSet{0, 30}),
//	))
//
//	v, err := inst.GetFloat("voltage")
//	err = inst.Set("voltage", 12.5)
//
// Reading a property formats the get command, sends it over the owner's
// connection, and runs the reply through the value coercion pipeline
// (preprocess, split, cast, unmap, get-process). Writing runs the inverse
// pipeline (set-process, validate, map, format) before sending.
//
// # Dynamic properties
//
// A property declared with the Dynamic option accepts per-owner overrides
// of its configuration fields (validator, values, cast, ...) without
// affecting other owners registered with the same declaration:
//
//	inst.Override("voltage", instrument.FieldValues, instrument.ValueSet{0, 60})
//
// Overrides are plain per-instance state; the property declaration itself
// is an immutable template shared by every owner that registers it.
//
// # Channels
//
// Channel groups are declared with ChannelCreator recipes and materialised
// once per owner instance. Command templates may contain a placeholder,
// "{ch}" by default, replaced with the channel id on every write:
//
//	creators := instrument.ChannelCreators{
//	    "channels": must(instrument.NewChannelCreator(newInputChannel, []string{"A", "B", "C"})),
//	}
//	err := inst.CreateChannels(creators)
//	chA, _ := inst.Child("ch_A")
//
// Channels declared through creators are protected and cannot be removed;
// children added later with AddChild can be removed again.
//
// # Concurrency
//
// An owner tree is intended for a single point of control. The underlying
// transport has no framing or locking of its own, so methods of this
// package must not be called concurrently for owners sharing a connection.
package instrument
