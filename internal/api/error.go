package api

import (
	"net/http"

	"github.com/pkg/errors"

	"validator-explorer/internal/collector"
	"validator-explorer/internal/storage"
)

var (
	errSystem       = errors.New("system error")
	errInvalidParam = errors.New("invalid parameter")
	errNotFound     = errors.New("not found")
	errDuplicated   = errors.New("already exists")
	errUnavailable  = errors.New("backend unavailable")
	errUnknownChain = errors.New("unknown chain")
	errInvalidStash = errors.New("invalid stash address")
	errNoRewards    = errors.New("no rewards found")
	errDateTooEarly = errors.New("start date too early")
	errCollector    = errors.New("rewards collector failed")
)

// ErrorCode maps API errors to the numeric codes of the error body.
var ErrorCode = map[error]int{
	errSystem:       1000,
	errInvalidParam: 1001,
	errNotFound:     1002,
	errDuplicated:   1003,
	errUnavailable:  1004,
	errUnknownChain: 1005,
	errInvalidStash: 1006,
	errNoRewards:    1007,
	errDateTooEarly: 1008,
	errCollector:    1009,
}

type errorResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// classify maps err to its HTTP status and API error. Client errors keep
// the detail of err in the message; server errors do not.
func classify(err error) (int, errorResp) {
	status, apiErr := http.StatusInternalServerError, errSystem

	switch {
	case errors.Is(err, errUnknownChain):
		status, apiErr = http.StatusNotFound, errUnknownChain
	case errors.Is(err, errInvalidStash):
		status, apiErr = http.StatusBadRequest, errInvalidStash
	case errors.Is(err, collector.ErrNoRewards):
		status, apiErr = http.StatusNotFound, errNoRewards
	case errors.Is(err, collector.ErrDateTooEarly):
		status, apiErr = http.StatusBadRequest, errDateTooEarly
	case errors.Is(err, collector.ErrFailed):
		status, apiErr = http.StatusBadGateway, errCollector
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, errNotFound):
		status, apiErr = http.StatusNotFound, errNotFound
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, errInvalidParam):
		status, apiErr = http.StatusBadRequest, errInvalidParam
	case errors.Is(err, storage.ErrDuplicateKey):
		status, apiErr = http.StatusConflict, errDuplicated
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, errUnavailable):
		status, apiErr = http.StatusServiceUnavailable, errUnavailable
	}

	msg := apiErr.Error()
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	return status, errorResp{Code: ErrorCode[apiErr], Message: msg}
}
