package portal

import (
	"runtime/debug"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery. Recovered panics
// are logged with a stack trace so a faulty handler cannot take down
// the sync engine.
func safeGo(l logger.Logger, context string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && l != nil {
				l.Error("panic [%s]: %v\n%s", context, r, debug.Stack())
			}
		}()
		fn()
	}()
}
