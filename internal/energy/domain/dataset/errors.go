package dataset

import "errors"

var (
	// ErrEmptyRegion is returned when an observation has no region name.
	ErrEmptyRegion = errors.New("dataset: empty region")
	// ErrInvalidTimestamp is returned when an observation timestamp is zero.
	ErrInvalidTimestamp = errors.New("dataset: invalid timestamp")
	// ErrInvalidPeriod is returned when a period selector kind is unknown.
	ErrInvalidPeriod = errors.New("dataset: invalid period")
	// ErrInvalidYear is returned when a year selector carries no usable year.
	ErrInvalidYear = errors.New("dataset: invalid year")
	// ErrUnknownSource is returned when a production source name is not recognised.
	ErrUnknownSource = errors.New("dataset: unknown source")
)
