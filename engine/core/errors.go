package core

import (
	"errors"
)

var (
	ErrInvalidTargetElapsedTime = errors.New("target elapsed time must be greater than zero")
	ErrWorkQueueClosed          = errors.New("work queue closed")
)
