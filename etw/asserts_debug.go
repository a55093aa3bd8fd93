//go:build debug

package etw

import "fmt"

// assert panics when cond is false. Release builds compile it away.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic("etw: broken invariant: " + fmt.Sprintf(format, args...))
	}
}
