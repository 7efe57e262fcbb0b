package core

import "errors"

var (
	// ErrUnknownHandle is returned when an operation references a handle
	// that was never issued or has been removed.
	ErrUnknownHandle = errors.New("unknown bounding volume handle")

	// ErrCapacityExceeded reports that a frame produced more visible
	// objects than the draw command buffer could hold. The frame is
	// lossy; the buffer grows before the next dispatch.
	ErrCapacityExceeded = errors.New("draw command capacity exceeded")

	// ErrDeviceLost reports an unrecoverable GPU device failure.
	ErrDeviceLost = errors.New("gpu device lost")
)
