package xlref

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXldateAsDatetime(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		xldate   float64
		datemode int
		want     string
	}{
		{0, 0, "1899-12-31T00:00:00.000"},
		{1, 0, "1900-01-01T00:00:00.000"},
		// Either side of the 1900-02-29 Excel pretends existed.
		{59.09111094906, 0, "1900-02-28T02:11:11.986"},
		{61.24078782403, 0, "1900-03-01T05:46:44.068"},
		{30188.010650613425, 0, "1982-08-25T00:15:20.213"},
		{36526, 0, "2000-01-01T00:00:00.000"},
		{2958465.999988426, 0, "9999-12-31T23:59:59.000"},
		{0.99999998842592586, 0, "1899-12-31T23:59:59.999"},

		{0, 1, "1904-01-01T00:00:00.000"},
		{35064, 1, "2000-01-01T00:00:00.000"},
		{2957003, 1, "9999-12-31T00:00:00.000"},
	}
	for _, tc := range testCases {
		want, err := time.Parse("2006-01-02T15:04:05.000", tc.want)
		require.NoError(t, err)

		got, err := XldateAsDatetime(tc.xldate, tc.datemode)
		require.NoError(t, err, "%v/%d", tc.xldate, tc.datemode)
		assert.True(t, got.Equal(want), "%v/%d: got %v, want %v", tc.xldate, tc.datemode, got, want)
	}
}

func TestXldateAsDatetimeErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		xldate   float64
		datemode int
		reason   string
	}{
		{1, 2, "invalid datemode"},
		{-1, 0, "negative or not a number"},
		{math.NaN(), 0, "negative or not a number"},
		{2958466, 0, "too large"},
		{2957004, 1, "too large"},
	}
	for _, tc := range testCases {
		_, err := XldateAsDatetime(tc.xldate, tc.datemode)
		var xe *XLDateError
		require.ErrorAs(t, err, &xe, "%v/%d", tc.xldate, tc.datemode)
		assert.Equal(t, tc.reason, xe.Reason)
		assert.Equal(t, tc.datemode, xe.Datemode)
	}
}
