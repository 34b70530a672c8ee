package domain

import (
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

type RunStatus string

const (
	RunSuccess RunStatus = "SUCCESS"
	RunFailure RunStatus = "FAILURE"
)

// ErrorKind is the closed classification of a failed dispatch outcome.
type ErrorKind string

const (
	ErrorTimeout           ErrorKind = "TIMEOUT"
	ErrorDNS               ErrorKind = "DNS_ERROR"
	ErrorConnectionRefused ErrorKind = "CONNECTION_REFUSED"
	ErrorNetwork           ErrorKind = "NETWORK_ERROR"
	ErrorHTTP5xx           ErrorKind = "HTTP_5XX"
	ErrorHTTP4xx           ErrorKind = "HTTP_4XX"
	ErrorUnknown           ErrorKind = "UNKNOWN"
)

// Run is the immutable record of one completed dispatch attempt.
// StatusCode is 0 when no response was received. ErrorKind is nil on
// success. ResponseBody holds a bounded preview of the response, or the
// failure description when the call never produced one.
type Run struct {
	ID             string
	ScheduleID     string
	ExecutedAt     time.Time
	Status         RunStatus
	StatusCode     int
	LatencyMS      int64
	SizeBytes      int64
	ErrorKind      *ErrorKind
	ResponseBody   string
	RequestHeaders map[string]string
}

// RunStats are the aggregate counters served by the stats endpoint.
type RunStats struct {
	TotalRuns    int64
	SuccessRuns  int64
	FailedRuns   int64
	AvgLatencyMS float64
}
