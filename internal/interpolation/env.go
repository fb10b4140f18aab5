// Package interpolation expands environment variable references in config
// values. References use ${VAR} or ${VAR:default} syntax; a reference with
// no default and no matching environment variable is an error.
package interpolation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// captures: variable name, the colon when present, and the default value
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

// Expand replaces every ${VAR} and ${VAR:default} reference in input with
// the environment variable's value, or the default when the variable is
// unset. A ${VAR:} reference defaults to the empty string.
func Expand(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	var missing []error
	result := envRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envRefPattern.FindStringSubmatch(match)
		name, hasDefault, fallback := parts[1], parts[2] == ":", parts[3]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}

		missing = append(missing, fmt.Errorf("environment variable not defined: %s", name))
		return match
	})

	return result, errors.Join(missing...)
}
