package etw

import (
	"testing"
	"time"

	"github.com/tekert/etwschema/internal/test"
)

func TestFiletime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ft   int64
		want time.Time
	}{
		{0, time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)},
		{-1, time.Date(1600, 12, 31, 23, 59, 59, 999999900, time.UTC)},
		{FiletimeEpoch, time.Unix(0, 0).UTC()},
		{133500000000000000, time.Date(2024, 1, 17, 21, 20, 0, 0, time.UTC)},
		{0x7fffffffffffffff, time.Date(30828, 9, 14, 2, 48, 5, 477580700, time.UTC)},
	}
	for _, tc := range tests {
		tt := test.FromT(t)
		got := FromFiletimeUTC(tc.ft)
		tt.Assert(got.Equal(tc.want), tc.ft, got, tc.want)
		tt.Equal(ToFiletime(got), tc.ft)
	}
}
