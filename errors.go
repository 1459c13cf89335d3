package zypprepo

import "errors"

var (
	// ErrParse indicates a repo file contains a line or header we can not understand.
	ErrParse = errors.New("failed to parse repo file")
	// ErrConfigRead indicates the shared zypper config could not be read. It is
	// never fatal, callers treat it like a missing reposdir setting.
	ErrConfigRead = errors.New("failed to read zypper config")
	// ErrWrite indicates a repo file could not be written.
	ErrWrite = errors.New("failed to write repo file")
	// ErrReservedName indicates an attempt to create the reserved main section.
	ErrReservedName = errors.New("reserved section name")
	// ErrInvalidKey indicates a key that can not be represented in a repo file.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidName indicates an empty or otherwise unusable section name.
	ErrInvalidName = errors.New("invalid section name")
	// ErrUnknownProperty indicates a property that is not part of the repo schema.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrValidation indicates a property value was rejected by its validator.
	ErrValidation = errors.New("invalid property value")
)
