// Package goroutineid reads the current goroutine's id from its stack
// header. It backs owner-goroutine checks and must not drive program logic.
package goroutineid

import (
	"bytes"
	"runtime"
	"sync"
)

var bufPool = sync.Pool{New: func() any { return new([64]byte) }}

var prefix = []byte("goroutine ")

// Get returns the current goroutine id, or 0 if it cannot be parsed.
func Get() int64 {
	buf := bufPool.Get().(*[64]byte)
	defer bufPool.Put(buf)
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse reads the id from a "goroutine N [state]:" header without
// allocating.
func parse(stack []byte) int64 {
	i := bytes.Index(stack, prefix)
	if i < 0 {
		return 0
	}
	var id int64
	for _, b := range stack[i+len(prefix):] {
		if b < '0' || b > '9' {
			break
		}
		id = id*10 + int64(b-'0')
	}
	return id
}
