package protocol

import "fmt"

// DataRequestCode selects which historical energy total the main unit reports.
// The same value comes back in byte 24 of the main-unit frame.
type DataRequestCode byte

const (
	DataRequestToday      DataRequestCode = 0xCA // Energy saved today
	DataRequestYesterday  DataRequestCode = 0xCB // Energy saved yesterday
	DataRequestLast7Days  DataRequestCode = 0xCC // Energy saved over the last 7 days
	DataRequestLast28Days DataRequestCode = 0xCD // Energy saved over the last 28 days
	DataRequestTotal      DataRequestCode = 0xCE // Energy saved since installation
)

// dataRequestCycle is the order in which successive polls query the totals
var dataRequestCycle = [...]DataRequestCode{
	DataRequestToday,
	DataRequestYesterday,
	DataRequestLast7Days,
	DataRequestLast28Days,
	DataRequestTotal,
}

// String returns the display name of the request
func (c DataRequestCode) String() string {
	switch c {
	case DataRequestToday:
		return "Saved Today"
	case DataRequestYesterday:
		return "Saved Yesterday"
	case DataRequestLast7Days:
		return "Saved Last 7 Days"
	case DataRequestLast28Days:
		return "Saved Last 28 Days"
	case DataRequestTotal:
		return "Saved Total"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(c))
	}
}

// Sensor returns the telemetry sensor name that carries this total
func (c DataRequestCode) Sensor() string {
	switch c {
	case DataRequestToday:
		return SensorHeatingToday
	case DataRequestYesterday:
		return SensorHeatingYesterday
	case DataRequestLast7Days:
		return SensorHeatingLast7
	case DataRequestLast28Days:
		return SensorHeatingLast28
	case DataRequestTotal:
		return SensorHeatingTotal
	default:
		return ""
	}
}

// Valid reports whether c is one of the five known request codes
func (c DataRequestCode) Valid() bool {
	return c >= DataRequestToday && c <= DataRequestTotal
}

// requiresPositive reports whether a zero or negative reply means "not populated yet".
// The unit returns garbage for the long periods until it has enough history.
func (c DataRequestCode) requiresPositive() bool {
	return c == DataRequestLast7Days || c == DataRequestLast28Days || c == DataRequestTotal
}

// RequestCycle rotates through the data request codes, one per poll.
// It has no reset; the zero value starts at DataRequestToday.
type RequestCycle struct {
	index int
}

// Next returns the current code and advances, wrapping after DataRequestTotal
func (c *RequestCycle) Next() DataRequestCode {
	code := dataRequestCycle[c.index]
	c.index = (c.index + 1) % len(dataRequestCycle)
	return code
}

// Peek returns the code the next call to Next will return
func (c *RequestCycle) Peek() DataRequestCode {
	return dataRequestCycle[c.index]
}
