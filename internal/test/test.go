// Package test holds the small assertion helpers shared by the package tests.
package test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// T wraps a testing.TB with fatal-on-failure helpers.
type T struct {
	testing.TB
}

func FromT(t testing.TB) *T {
	return &T{t}
}

// Assert fails the test if cond is false.
func (t *T) Assert(cond bool, msg ...any) {
	t.Helper()
	if !cond {
		if len(msg) > 0 {
			t.Fatal(msg...)
		}
		t.Fatal("assertion failed")
	}
}

// CheckErr fails the test on a non-nil error.
func (t *T) CheckErr(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ExpectErr fails the test unless err matches target with errors.Is.
func (t *T) ExpectErr(err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}

// Equal fails the test with a diff when got and want differ.
func (t *T) Equal(got, want any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// ShouldPanic fails the test unless fn panics.
func (t *T) ShouldPanic(fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
}
