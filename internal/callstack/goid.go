package callstack

import (
	"bytes"
	"runtime"
)

var goroutinePrefix = []byte("goroutine ")

// GoroutineID returns the id of the calling goroutine, parsed from the
// runtime stack header ("goroutine N [running]:"). The boolean is
// false when the header cannot be parsed; callers treat that as a
// permanent loss of goroutine-local bookkeeping.
func GoroutineID() (uint64, bool) {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := buf[:n]

	if !bytes.HasPrefix(s, goroutinePrefix) {
		return 0, false
	}
	s = s[len(goroutinePrefix):]

	var id uint64
	var i int
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		id = id*10 + uint64(s[i]-'0')
		i++
	}
	if i == 0 || id == 0 {
		return 0, false
	}
	return id, true
}
