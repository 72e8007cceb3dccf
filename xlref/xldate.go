package xlref

import (
	"fmt"
	"math"
	"time"
)

const (
	xldaysTooLarge1900 = 2958466
	xldaysTooLarge1904 = 2958466 - 1462
)

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// XLDateError reports a serial number that is not a valid Excel date.
type XLDateError struct {
	Value    float64
	Datemode int
	Reason   string
}

func (e *XLDateError) Error() string {
	return fmt.Sprintf("xldate %v (datemode %d): %s", e.Value, e.Datemode, e.Reason)
}

// XldateAsDatetime converts an Excel serial date number into a time in UTC.
// datemode 0 is the 1900 date system and 1 the 1904 one. Numbers below 1 are
// times of day on the epoch.
func XldateAsDatetime(xldate float64, datemode int) (time.Time, error) {
	switch {
	case datemode != 0 && datemode != 1:
		return time.Time{}, &XLDateError{Value: xldate, Datemode: datemode, Reason: "invalid datemode"}
	case math.IsNaN(xldate) || xldate < 0:
		return time.Time{}, &XLDateError{Value: xldate, Datemode: datemode, Reason: "negative or not a number"}
	}
	tooLarge := xldaysTooLarge1900
	if datemode == 1 {
		tooLarge = xldaysTooLarge1904
	}
	if xldate >= float64(tooLarge) {
		return time.Time{}, &XLDateError{Value: xldate, Datemode: datemode, Reason: "too large"}
	}

	epoch := epoch1904
	if datemode == 0 {
		epoch = epoch1900
		// Excel counts 1900-02-29, which never existed.
		if xldate >= 60 {
			epoch = epoch1900Minus1
		}
	}

	days := int(xldate)
	millis := int(math.Round((xldate - float64(days)) * 86400000.0))
	return epoch.AddDate(0, 0, days).Add(time.Duration(millis) * time.Millisecond), nil
}
