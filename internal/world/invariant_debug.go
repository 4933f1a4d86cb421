//go:build debug

package world

import "fmt"

// invariant panics when cond is false. Built only with -tags debug.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("world invariant: "+format, args...))
	}
}
