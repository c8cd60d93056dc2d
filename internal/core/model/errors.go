package model

import (
	"errors"
	"sort"
	"strings"
)

// Attendance domain errors
var (
	ErrAlreadyCheckedIn = errors.New("employee has already checked in for this work date")
	ErrNotCheckedIn     = errors.New("employee has no open attendance record")
	ErrInvalidDuration  = errors.New("check-out must be at least one minute after check-in")
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrInvalidRange     = errors.New("invalid date range")
)

type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors reports malformed input before it reaches the recorder.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	sort.Strings(msgs)
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v))
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}
