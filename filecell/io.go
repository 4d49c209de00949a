// FILE: lixenwraith/lazy/filecell/io.go
package filecell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// encode renders v in format, keyed by tagName paths so the output loads back
// into the same fields.
func encode(v any, format, tagName string) ([]byte, error) {
	nested := make(map[string]any)
	for path, value := range fieldPaths(reflect.ValueOf(v), tagName) {
		if value = encodableValue(value); value != nil {
			setNestedValue(nested, path, value)
		}
	}

	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal TOML: %w", err)
		}
	case FormatJSON:
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return buf.Bytes(), nil
}

// encodableValue converts values the decode hooks parse from strings back to
// strings, and drops nil pointers and interfaces.
func encodableValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case net.IP:
		if v == nil {
			return nil
		}
		return v.String()
	case net.IPNet:
		return v.String()
	case *net.IPNet:
		if v == nil {
			return nil
		}
		return v.String()
	case url.URL:
		return v.String()
	case *url.URL:
		if v == nil {
			return nil
		}
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return encodableValue(rv.Elem().Interface())
	}
	return value
}

// atomicWriteFile replaces path with data via a synced temp file and rename.
// An existing file keeps its permissions; a new one gets 0644.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // no-op after a successful rename

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, mode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
