//go:build debug

package character

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/joeycumines/goblinscript/internal/goroutineid"
)

// ownerCheck remembers the first goroutine to touch owner-only methods and
// panics if any other goroutine follows.
//
// Only compiled with -tags debug.
type ownerCheck struct {
	id atomic.Int64
}

func (o *ownerCheck) assert() {
	gid := goroutineid.Get()
	if gid == 0 || o.id.CompareAndSwap(0, gid) {
		return
	}
	if owner := o.id.Load(); owner != gid {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		panic(fmt.Sprintf("character: owner goroutine %d, called from %d\nStack:\n%s", owner, gid, buf[:n]))
	}
}
