//go:build !debug

package etw

func assert(bool, string, ...any) {}
