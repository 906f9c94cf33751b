package pass_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"flowpass/internal/pass"
)

func TestSalesDayStart(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "afternoon belongs to today's window",
			now:  time.Date(2026, 3, 10, 14, 30, 0, 0, loc),
			want: time.Date(2026, 3, 10, 8, 0, 0, 0, loc),
		},
		{
			name: "just before the boundary belongs to yesterday",
			now:  time.Date(2026, 3, 10, 7, 59, 59, 0, loc),
			want: time.Date(2026, 3, 9, 8, 0, 0, 0, loc),
		},
		{
			name: "the boundary instant starts the new window",
			now:  time.Date(2026, 3, 10, 8, 0, 0, 0, loc),
			want: time.Date(2026, 3, 10, 8, 0, 0, 0, loc),
		},
		{
			name: "overnight hours count toward the previous day",
			now:  time.Date(2026, 3, 10, 2, 0, 0, 0, loc),
			want: time.Date(2026, 3, 9, 8, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(pass.SalesDayStart(tc.now)),
				"SalesDayStart(%v) = %v, want %v", tc.now, pass.SalesDayStart(tc.now), tc.want)
		})
	}
}

func TestSalesDayEnd(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	now := time.Date(2026, 3, 10, 22, 0, 0, 0, loc)
	end := pass.SalesDayEnd(now)
	assert.True(t, time.Date(2026, 3, 11, 8, 0, 0, 0, loc).Equal(end))

	// Early morning still ends at today's boundary.
	now = time.Date(2026, 3, 10, 3, 0, 0, 0, loc)
	end = pass.SalesDayEnd(now)
	assert.True(t, time.Date(2026, 3, 10, 8, 0, 0, 0, loc).Equal(end))
}

func TestNextReset(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	// A pass bought at night expires at the next morning's boundary.
	now := time.Date(2026, 3, 10, 23, 15, 0, 0, loc)
	assert.True(t, time.Date(2026, 3, 11, 8, 0, 0, 0, loc).Equal(pass.NextReset(now)))

	// A pass bought at 2am the same night expires just hours later.
	now = time.Date(2026, 3, 11, 2, 0, 0, 0, loc)
	assert.True(t, time.Date(2026, 3, 11, 8, 0, 0, 0, loc).Equal(pass.NextReset(now)))
}

func TestScannedStoreID(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{"https://flowpass.app/store/abc123", "abc123"},
		{"https://flowpass.app/store/abc123?src=poster", "abc123"},
		{"https://flowpass.app/store/abc123/anything", "abc123"},
		{"abc123", "abc123"},
		{"  abc123 ", "abc123"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, pass.ScannedStoreID(tc.data), "data=%q", tc.data)
	}
}
