package instrument

import "errors"

// Domain errors for the instrument package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, instrument.ErrNotInMap) {
//	    // reply did not match the configured value map
//	}
var (
	// ErrUnknownProperty is returned when a property name is not registered.
	ErrUnknownProperty = errors.New("instrument: unknown property")

	// ErrNotReadable is returned when reading a write-only property.
	ErrNotReadable = errors.New("instrument: property can not be read")

	// ErrNotWritable is returned when writing a read-only property.
	ErrNotWritable = errors.New("instrument: property can not be set")

	// ErrUnreadableAttribute is returned when reading a property that has
	// neither a get nor a set command configured.
	ErrUnreadableAttribute = errors.New("instrument: unreadable attribute")

	// ErrUnwritableAttribute is returned when writing a property that has
	// neither a get nor a set command configured.
	ErrUnwritableAttribute = errors.New("instrument: can not set attribute")

	// ErrInvalidValue is returned by validators when a value falls outside
	// the allowed range or set.
	ErrInvalidValue = errors.New("instrument: value not allowed")

	// ErrNotInMap is returned when a value is absent from the configured
	// value map, on either the read or the write path. It signals a
	// device/protocol mismatch and is never retried.
	ErrNotInMap = errors.New("instrument: value not found in mapped values")

	// ErrUnsupportedValues is returned when mapping is requested but the
	// configured values are neither a ValueSet nor a ValueMap.
	ErrUnsupportedValues = errors.New("instrument: values type not supported")

	// ErrStaticProperty is returned when overriding a property that was not
	// declared dynamic.
	ErrStaticProperty = errors.New("instrument: property is not dynamic")

	// ErrInvalidOverride is returned for an unknown override field or a
	// value of the wrong type.
	ErrInvalidOverride = errors.New("instrument: invalid override")

	// ErrInvalidCreator is returned for a channel creator with no usable
	// factory/id combination.
	ErrInvalidCreator = errors.New("instrument: invalid channel creator")

	// ErrCreatorLengths is returned when factory and id lists have
	// different lengths.
	ErrCreatorLengths = errors.New("instrument: lengths of factories and ids do not match")

	// ErrChildExists is returned when a child registration collides with an
	// existing child or collection. The registry is left unchanged.
	ErrChildExists = errors.New("instrument: child already exists")

	// ErrProtectedChild is returned when removing a child that was created
	// from a declared ChannelCreator recipe.
	ErrProtectedChild = errors.New("instrument: cannot remove channels declared by the owner type")

	// ErrUnknownChild is returned when removing a child that is not
	// registered on this owner.
	ErrUnknownChild = errors.New("instrument: unknown child")

	// ErrNoBinaryReader is returned when the owner's connection does not
	// support binary value reads.
	ErrNoBinaryReader = errors.New("instrument: connection does not support binary values")

	// ErrUnknownInstrument is returned by the registry for an unregistered ID.
	ErrUnknownInstrument = errors.New("instrument: unknown instrument")

	// ErrDuplicateInstrument is returned by the registry when an ID is taken.
	ErrDuplicateInstrument = errors.New("instrument: duplicate instrument id")

	// ErrInvalidEntry is returned by the registry for an incomplete entry.
	ErrInvalidEntry = errors.New("instrument: invalid registry entry")
)
