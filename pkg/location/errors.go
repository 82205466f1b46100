package location

import "errors"

var (
	ErrUnknownOption = errors.New("location: option is not in the list for this level")
	ErrInvalidLevel  = errors.New("location: invalid level")
	ErrParentNotSet  = errors.New("location: parent level has no selection")
	ErrSuperseded    = errors.New("location: selection was superseded")
)
