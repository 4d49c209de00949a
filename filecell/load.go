// FILE: lixenwraith/lazy/filecell/load.go
package filecell

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Supported file formats
const (
	FormatAuto = "auto"
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// loader is the builder behind a file-backed cell. Its fields are fixed at
// Build time, so concurrent loads only share read-only state.
type loader[T any] struct {
	path         string
	format       string
	tagName      string
	paths        map[string]any // every leaf field path of T
	defaults     map[string]any // nil when no defaults were given
	envTransform EnvTransformFunc
	security     *SecurityOptions
	strict       bool
	validators   []ValidatorFunc[T]
	logger       *log.Logger
}

// load layers defaults, file and environment, decodes and validates.
func (l *loader[T]) load() (T, error) {
	var out T

	fileData, err := l.readFile()
	switch {
	case errors.Is(err, ErrFileNotFound) && l.defaults != nil:
		fileData = nil
	case err != nil:
		return out, err
	}

	merged := make(map[string]any)
	for path, value := range l.defaults {
		setNestedValue(merged, path, value)
	}
	for path, value := range flattenMap(fileData, "") {
		setNestedValue(merged, path, value)
	}
	env, err := l.envOverrides()
	if err != nil {
		return out, err
	}
	for path, value := range env {
		setNestedValue(merged, path, value)
	}

	if err := decode(merged, &out, l.tagName, l.strict); err != nil {
		return out, fmt.Errorf("failed to decode config file '%s': %w", l.path, err)
	}

	for i, validate := range l.validators {
		if err := validate(&out); err != nil {
			return out, fmt.Errorf("%w: validator %d: %w", ErrValidation, i, err)
		}
	}

	if l.logger != nil {
		l.logger.Debug("config loaded", "path", l.path, "file", fileData != nil, "env", len(env))
	}
	return out, nil
}

// readFile applies the security checks, then reads and parses the file.
func (l *loader[T]) readFile() (map[string]any, error) {
	if err := l.checkPath(); err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, l.path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", l.path, err)
	}

	if l.security != nil && l.security.MaxFileSize > 0 && fileInfo.Size() > l.security.MaxFileSize {
		return nil, fmt.Errorf("%w: '%s' exceeds %d bytes", ErrFileTooLarge, l.path, l.security.MaxFileSize)
	}

	// Unix only
	if l.security != nil && l.security.EnforceFileOwnership && runtime.GOOS != "windows" {
		if stat, ok := fileInfo.Sys().(*syscall.Stat_t); ok {
			if stat.Uid != uint32(os.Geteuid()) {
				return nil, fmt.Errorf("config file '%s' is not owned by current user (file UID: %d, process UID: %d)",
					l.path, stat.Uid, os.Geteuid())
			}
		}
	}

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", l.path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if l.security != nil && l.security.MaxFileSize > 0 {
		reader = io.LimitReader(file, l.security.MaxFileSize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", l.path, err)
	}

	format := l.resolveFormat(data)
	parsed, err := parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", l.path, err)
	}
	return parsed, nil
}

func (l *loader[T]) checkPath() error {
	if l.security == nil || !l.security.PreventPathTraversal {
		return nil
	}
	cleanPath := filepath.Clean(l.path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, l.path)
	}
	// Relative path became absolute after cleaning
	if filepath.IsAbs(cleanPath) && !filepath.IsAbs(l.path) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, l.path)
	}
	return nil
}

// resolveFormat picks the configured format, then the extension, then the
// content, then the tag name as a last hint.
func (l *loader[T]) resolveFormat(data []byte) string {
	if l.format != "" && l.format != FormatAuto {
		return l.format
	}
	if format := detectFileFormat(l.path); format != "" {
		return format
	}
	if format := detectFormatFromContent(data); format != "" {
		return format
	}
	return l.tagName
}

// envOverrides reads one variable per known field path.
// Values stay strings; the decoder converts them.
func (l *loader[T]) envOverrides() (map[string]any, error) {
	result := make(map[string]any)
	for path := range l.paths {
		name := l.envTransform(path)
		if name == "" {
			continue
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: environment variable %s", ErrValueSize, name)
		}
		result[path] = value
	}
	return result, nil
}

// parse decodes raw file data into a nested map.
func parse(data []byte, format string) (map[string]any, error) {
	result := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return result, nil
}

// defaultEnvTransform maps "server.port" to PREFIX + "SERVER_PORT"
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		return prefix + strings.ToUpper(env)
	}
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// JSON first, YAML accepts it too
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// TOML before YAML: "key = value" lines are valid YAML plain scalars
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return ""
}
