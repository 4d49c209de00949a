// FILE: lixenwraith/lazy/filecell/helper.go
package filecell

import (
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// flattenMap converts a nested map to a flat map with dot-notation paths
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			// An empty table carries no leaves and must not mask defaults below it.
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// Intermediate maps are created as needed; a non-map segment is replaced by one.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, isMap := current[segment].(map[string]any)
		if !isMap {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}

	current[segments[len(segments)-1]] = value
}

// leafTypes are struct types decoded from a single scalar, not walked.
var leafTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}): true,
	reflect.TypeOf(url.URL{}):   true,
	reflect.TypeOf(net.IPNet{}): true,
}

// fieldPaths walks a struct value and returns every leaf field keyed by its
// dot-separated tag path. Nil pointers to structs are skipped.
func fieldPaths(v reflect.Value, tagName string) map[string]any {
	paths := make(map[string]any)
	walkFields(v, tagName, "", paths)
	return paths
}

func walkFields(v reflect.Value, tagName, prefix string, out map[string]any) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		key := field.Name
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}

		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		isPtr, fieldType := derefType(fieldValue.Type())
		if fieldType.Kind() == reflect.Struct && !leafTypes[fieldType] {
			nested := fieldValue
			if isPtr {
				if fieldValue.IsNil() {
					continue
				}
				nested = fieldValue.Elem()
			}
			walkFields(nested, tagName, path, out)
			continue
		}

		out[path] = fieldValue.Interface()
	}
}
