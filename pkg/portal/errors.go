package portal

import "errors"

var (
	ErrEngineClosed = errors.New("sync engine is closed")
	ErrNoToken      = errors.New("no credential token available")
)
