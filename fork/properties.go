// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package fork

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	// propertyPrefix introduces a JVM system property on the command line.
	propertyPrefix = "-D"
)

// reservedPropertyNames may never be overridden through fork properties, the
// classpath of the forked JVM is always the built artifact.
var reservedPropertyNames = []string{
	"java.class.path",
	"classpath",
}

// Property is a single JVM system property.
type Property struct {
	Key   string
	Value string
}

// Properties is an ordered set of JVM system properties. Unlike a map it
// keeps the order in which the properties were declared.
type Properties []Property

// isReserved reports whether s names a reserved property, ignoring case.
func isReserved(s string) bool {
	for _, name := range reservedPropertyNames {
		if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
			return true
		}
	}
	return false
}

// ExtractProperties turns the user supplied fork properties into -Dkey=value
// command line flags. The value may be a raw string of -D delimited
// properties, a Properties list or a string keyed map. Any other value yields
// no flags and a warning; it is never an error so that the build carries on.
func ExtractProperties(logger hclog.Logger, value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return propertiesFromString(v)
	case Properties:
		return propertiesFromList(v)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := make(Properties, 0, len(v))
		for _, k := range keys {
			props = append(props, Property{Key: k, Value: v[k]})
		}
		return propertiesFromList(props)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := make(Properties, 0, len(v))
		for _, k := range keys {
			props = append(props, Property{Key: k, Value: fmt.Sprint(v[k])})
		}
		return propertiesFromList(props)
	default:
		if logger != nil {
			logger.Warn("ignoring fork properties, only strings and key/value mappings are supported",
				"type", fmt.Sprintf("%T", value))
		}
		return nil
	}
}

func propertiesFromString(s string) []string {
	var flags []string
	for _, fragment := range strings.Split(s, propertyPrefix) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" || isReserved(fragment) {
			continue
		}
		flags = append(flags, propertyPrefix+fragment)
	}
	return flags
}

func propertiesFromList(props Properties) []string {
	var flags []string
	for _, p := range props {
		if isReserved(p.Key) {
			continue
		}
		flags = append(flags, fmt.Sprintf("%s%s=%s", propertyPrefix, p.Key, p.Value))
	}
	return flags
}
