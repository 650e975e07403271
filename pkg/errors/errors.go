/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Create sentinel errors for common cases
var (
	ErrMediumNotFound = &RodentError{
		Code:       LRSMediumNotFound,
		Domain:     DomainLRS,
		Message:    errorDefinitions[LRSMediumNotFound].message,
		HTTPStatus: errorDefinitions[LRSMediumNotFound].httpStatus,
	}

	ErrDriveNotFound = &RodentError{
		Code:       LRSDriveNotFound,
		Domain:     DomainLRS,
		Message:    errorDefinitions[LRSDriveNotFound].message,
		HTTPStatus: errorDefinitions[LRSDriveNotFound].httpStatus,
	}
)

func (e *RodentError) Error() string {
	// The reason Error() doesn't include metadata is that:
	// - It follows the standard error interface pattern for concise error messages
	// - Metadata is meant for structured data consumption (API responses, logging, monitoring)
	// - Including all metadata would make error messages too verbose for standard logging
	msg := fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	// Include stderr in error message if available
	if e.Metadata != nil {
		if stderr, ok := e.Metadata["stderr"]; ok && stderr != "" {
			msg += "\nCommand output: " + stderr
		}
	}
	return msg
}

func (e *RodentError) WithMetadata(key, value string) *RodentError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// MarshalJSON customizes JSON serialization
func (e *RodentError) MarshalJSON() ([]byte, error) {
	type Alias RodentError
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(e),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates a new RodentError
func New(code ErrorCode, details string) *RodentError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &RodentError{
			Code:       code,
			Domain:     "UNKNOWN",
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &RodentError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Is implements the interface for errors.Is
func (e *RodentError) Is(target error) bool {
	if t, ok := target.(*RodentError); ok {
		// Match by error code within the same domain
		return e.Code == t.Code && e.Domain == t.Domain
	}
	return false
}

// Is checks if an error matches a sentinel error
func Is(err, target error) bool {
	re, ok := err.(*RodentError)
	if !ok {
		return false
	}

	if t, ok := target.(*RodentError); ok {
		return re.Code == t.Code && re.Domain == t.Domain
	}
	return false
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode) *RodentError {
	if re, ok := err.(*RodentError); ok {
		// Create new error but preserve metadata
		newErr := New(code, re.Details)
		// Copy metadata from original error
		if re.Metadata != nil {
			for k, v := range re.Metadata {
				newErr.WithMetadata(k, v)
			}
		}
		// TODO: Append error to existing metadata to retain the chain?
		// Add wrapped error info
		newErr.WithMetadata("wrapped_code", fmt.Sprintf("%d", re.Code))
		newErr.WithMetadata("wrapped_domain", string(re.Domain))
		newErr.WithMetadata("wrapped_message", re.Message)
		return newErr
	}
	return New(code, err.Error())
}

// Unwrap implements the interface for errors.Unwrap
func (e *RodentError) Unwrap() error {
	// Returns the text stored under the "wrapped_error" metadata key as a
	// plain error. Wrap records the wrapped error's code, domain and message
	// under other keys and does not set this one, so errors built by Wrap
	// unwrap to nil.
	if e.Metadata != nil {
		if originalErr, ok := e.Metadata["wrapped_error"]; ok {
			return fmt.Errorf("%s", originalErr)
		}
	}
	return nil
}

// IsRodentError checks if an error is a RodentError
func IsRodentError(err error) bool {
	_, ok := err.(*RodentError)
	return ok
}

// CommandError helper for command execution errors
type CommandError struct {
	Command  string
	ExitCode int
	StdErr   string
}

func NewCommandError(cmd string, exitCode int, stderr string) *RodentError {
	return New(CommandExecution, "Command execution failed").
		WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode)).
		WithMetadata("stderr", stderr)
}

// GetCode extracts the error code from an error if it's a RodentError
// If not a RodentError, returns 0 and false
func GetCode(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}

	// Check if it's directly a RodentError
	if re, ok := err.(*RodentError); ok {
		return re.Code, true
	}

	// Check if the error wraps a RodentError using errors.As
	var rodentErr *RodentError
	if errors.As(err, &rodentErr) {
		return rodentErr.Code, true
	}

	return 0, false
}

// GetErrorWithCode returns the first RodentError in the error chain with the specified code
// Returns nil if no matching error is found
func GetErrorWithCode(err error, code ErrorCode) *RodentError {
	if err == nil {
		return nil
	}

	// Check the current error
	if re, ok := err.(*RodentError); ok && re.Code == code {
		return re
	}

	// Check wrapped errors
	var rodentErr *RodentError
	if errors.As(err, &rodentErr) && rodentErr.Code == code {
		return rodentErr
	}

	return nil
}

// errorCodeToHTTPStatus maps an error code to an HTTP status code
func errorCodeToHTTPStatus(code ErrorCode) int {
	if def, ok := errorDefinitions[code]; ok {
		return def.httpStatus
	}
	return http.StatusInternalServerError
}

// Kind classifies an error per the LRS error-handling design: every
// RodentError raised by pkg/lrs falls into exactly one of these buckets so
// callers can decide whether to retry, surface, or just log and continue.
type Kind string

const (
	KindInvalidArgument         Kind = "invalid-argument"
	KindNotFound                Kind = "not-found"
	KindNoSpace                 Kind = "no-space"
	KindBusyRetry               Kind = "busy-retry"
	KindNoDevice                Kind = "no-device"
	KindPermanentDriveFailure   Kind = "permanent-drive-failure"
	KindCatalogFailure          Kind = "catalog-failure"
)

// kindByCode maps an LRS error code to its classification kind. Codes not
// present here are not part of the LRS error surface.
var kindByCode = map[ErrorCode]Kind{
	LRSInvalidArgument:       KindInvalidArgument,
	LRSMediumNotFound:        KindNotFound,
	LRSDriveNotFound:         KindNotFound,
	LRSNoSpace:               KindNoSpace,
	LRSBusyRetry:             KindBusyRetry,
	LRSNoDevice:              KindNoDevice,
	LRSDriveFailed:           KindPermanentDriveFailure,
	LRSCatalogFailure:        KindCatalogFailure,
}

// KindOf returns the classification Kind for a RodentError raised from the
// LRS domain, and false if err isn't one of ours.
func KindOf(err error) (Kind, bool) {
	code, ok := GetCode(err)
	if !ok {
		return "", false
	}
	k, ok := kindByCode[code]
	return k, ok
}

// IsKind reports whether err is an LRS error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}