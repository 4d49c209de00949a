package filecell

import "errors"

var (
	// ErrFileNotFound indicates the configured file does not exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrNoFile indicates the builder was not given a file path.
	ErrNoFile = errors.New("no config file configured")

	// ErrUnknownFormat indicates the file format could not be determined.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrPathTraversal indicates a relative path escaping the working directory.
	ErrPathTraversal = errors.New("potential path traversal")

	// ErrFileTooLarge indicates the file exceeds SecurityOptions.MaxFileSize.
	ErrFileTooLarge = errors.New("config file too large")

	// ErrValueSize indicates an environment override exceeds MaxValueSize.
	ErrValueSize = errors.New("value exceeds maximum size")

	// ErrValidation indicates a validator rejected the decoded value.
	ErrValidation = errors.New("validation failed")
)
