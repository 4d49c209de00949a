// FILE: lixenwraith/lazy/filecell/builder.go
package filecell

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/lazy"
)

// ValidatorFunc checks a decoded value before it is cached.
type ValidatorFunc[T any] func(v *T) error

// EnvTransformFunc converts a dot-separated field path to an environment variable name
type EnvTransformFunc func(path string) string

// SecurityOptions restricts which files the loader accepts
type SecurityOptions struct {
	// PreventPathTraversal rejects relative paths that climb out of the working directory
	PreventPathTraversal bool

	// MaxFileSize rejects files larger than this many bytes (0 = unlimited)
	MaxFileSize int64

	// EnforceFileOwnership rejects files not owned by the current user (Unix only)
	EnforceFileOwnership bool
}

// Builder provides a fluent interface for building file-backed cells
type Builder[T any] struct {
	file         string
	format       string
	tagName      string
	envPrefix    string
	envTransform EnvTransformFunc
	defaults     *T
	security     *SecurityOptions
	strict       bool
	validators   []ValidatorFunc[T]
	logger       *log.Logger
	name         string
	err          error
}

// NewBuilder creates a builder for a cell of type T.
// T must be a struct type.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		format:  FormatAuto,
		tagName: "toml",
	}
}

// WithFile sets the configuration file path
func (b *Builder[T]) WithFile(path string) *Builder[T] {
	b.file = path
	return b
}

// WithFormat forces a file format instead of detecting it
func (b *Builder[T]) WithFormat(format string) *Builder[T] {
	switch format {
	case FormatAuto, FormatTOML, FormatYAML, FormatJSON:
		b.format = format
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b
}

// WithTagName sets the struct tag used for field paths, "toml" by default
func (b *Builder[T]) WithTagName(tag string) *Builder[T] {
	if tag == "" {
		b.err = errors.New("tag name cannot be empty")
		return b
	}
	b.tagName = tag
	return b
}

// WithDefaults sets the value whose fields fill in anything the file omits.
// With defaults set, a missing file is not an error.
func (b *Builder[T]) WithDefaults(defaults T) *Builder[T] {
	b.defaults = &defaults
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder[T]) WithEnvPrefix(prefix string) *Builder[T] {
	b.envPrefix = prefix
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder[T]) WithEnvTransform(fn EnvTransformFunc) *Builder[T] {
	b.envTransform = fn
	return b
}

// WithSecurityOptions sets file access restrictions
func (b *Builder[T]) WithSecurityOptions(opts SecurityOptions) *Builder[T] {
	b.security = &opts
	return b
}

// WithStrict makes keys that match no field a load error
func (b *Builder[T]) WithStrict(strict bool) *Builder[T] {
	b.strict = strict
	return b
}

// WithValidator adds a validation function run after every load.
// Validators run in the order they are added.
func (b *Builder[T]) WithValidator(fn ValidatorFunc[T]) *Builder[T] {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithLogger sets the logger for loads, stores and watcher events
func (b *Builder[T]) WithLogger(logger *log.Logger) *Builder[T] {
	b.logger = logger
	return b
}

// WithName labels the cell in log output, the file path by default
func (b *Builder[T]) WithName(name string) *Builder[T] {
	b.name = name
	return b
}

// Build creates the cell. The file is not read until the first Get.
func (b *Builder[T]) Build() (*Cell[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.file == "" {
		return nil, ErrNoFile
	}

	var zero T
	if t := reflect.TypeOf(zero); t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cell type must be a struct, got %T", zero)
	}

	transform := b.envTransform
	if transform == nil {
		transform = defaultEnvTransform(b.envPrefix)
	}

	paths := fieldPaths(reflect.ValueOf(zero), b.tagName)
	var defaults map[string]any
	if b.defaults != nil {
		defaults = fieldPaths(reflect.ValueOf(*b.defaults), b.tagName)
	}

	name := b.name
	if name == "" {
		name = b.file
	}

	l := &loader[T]{
		path:         b.file,
		format:       b.format,
		tagName:      b.tagName,
		paths:        paths,
		defaults:     defaults,
		envTransform: transform,
		security:     b.security,
		strict:       b.strict,
		validators:   b.validators,
		logger:       b.logger,
	}

	opts := []lazy.Option{lazy.WithName(name)}
	if b.logger != nil {
		opts = append(opts, lazy.WithLogger(b.logger))
	}

	return &Cell[T]{
		cell:   lazy.NewTry(l.load, opts...),
		loader: l,
		name:   name,
	}, nil
}

// MustBuild is like Build but panics on error
func (b *Builder[T]) MustBuild() *Cell[T] {
	c, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("filecell: build failed: %v", err))
	}
	return c
}
