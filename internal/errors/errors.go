// Package errors provides standardized error handling for imgsort.
// It defines the error kinds surfaced by the catalog, the loader and the
// navigation cursor, and helpers for consistent creation, wrapping and
// classification of those errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	IOFailure
	DecodeFailure
	FileOperationFailed
	InvalidOperation
	// Navigation error kinds
	IndexOutOfRange
	// Config error kinds
	InvalidConfig
	ConfigNotFound
)

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound  = NewFileError("file not found", "", FileNotFound, nil)
	ErrInvalidConfig = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrEmptyCatalog  = NewIndexError(0, 0)
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors tied to a single path: unreadable files and
// directories (IOFailure) and images that cannot be decoded (DecodeFailure).
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// NewIOError reports a file or directory that could not be read.
func NewIOError(path string, err error) *FileError {
	return NewFileError("cannot read", path, IOFailure, err)
}

// NewDecodeError reports an image that could not be decoded. The reason is
// what the UI shows for a Failed entry.
func NewDecodeError(path, reason string, err error) *FileError {
	return NewFileError(reason, path, DecodeFailure, err)
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// Reason returns the message without the path, suitable for display next
// to the entry it belongs to.
func (e *FileError) Reason() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// IndexError is returned when a catalog position is outside [0, length).
type IndexError struct {
	ApplicationError
	index  int
	length int
}

// NewIndexError creates a new index error
func NewIndexError(index, length int) *IndexError {
	return &IndexError{
		ApplicationError: ApplicationError{
			msg:  "index out of range",
			kind: IndexOutOfRange,
		},
		index:  index,
		length: length,
	}
}

// Error returns the index error message
func (e *IndexError) Error() string {
	if e.length == 0 {
		return fmt.Sprintf("%s: %d (catalog is empty)", e.msg, e.index)
	}
	return fmt.Sprintf("%s: %d not in [0, %d)", e.msg, e.index, e.length)
}

// Index returns the rejected index
func (e *IndexError) Index() int {
	return e.index
}

// Length returns the catalog length at the time of the error
func (e *IndexError) Length() int {
	return e.length
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind()
	}
	var indexErr *IndexError
	if errors.As(err, &indexErr) {
		return indexErr.Kind()
	}
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind()
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsIOError checks if the error is an unreadable file or directory error
func IsIOError(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == IOFailure || fileErr.Kind() == FileNotFound
	}
	return false
}

// IsDecodeError checks if the error is an image decode error
func IsDecodeError(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == DecodeFailure
	}
	return false
}

// IsIndexError checks if the error is a navigation index error
func IsIndexError(err error) bool {
	var indexErr *IndexError
	return errors.As(err, &indexErr)
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}
