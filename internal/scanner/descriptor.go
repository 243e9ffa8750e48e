package scanner

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ErrBadStepFileName is returned when a file in a steps directory does
// not carry the required "NNN-description" numeric prefix.
var ErrBadStepFileName = errors.New("step file name has no numeric prefix")

// parsedName is the ordering key extracted from a descriptor file name.
type parsedName struct {
	order int
	name  string
}

// parseStepFileName splits "100-validate-input.md" into order 100 and
// name "validate-input". The numeric prefix is required; the extension
// is ignored.
func parseStepFileName(file string) (parsedName, error) {
	base := stripExt(path.Base(file))
	prefix, rest, found := strings.Cut(base, "-")
	if !found || prefix == "" {
		return parsedName{}, fmt.Errorf("%w: %q", ErrBadStepFileName, file)
	}
	order, err := strconv.Atoi(prefix)
	if err != nil {
		return parsedName{}, fmt.Errorf("%w: %q", ErrBadStepFileName, file)
	}
	return parsedName{order: order, name: rest}, nil
}

// parseTaskFileName mirrors parseStepFileName but tolerates a missing
// prefix: async tasks have no required ordering, so "notify-email.md"
// is valid and sorts by name among order-zero entries.
func parseTaskFileName(file string) parsedName {
	if p, err := parseStepFileName(file); err == nil {
		return p
	}
	return parsedName{order: 0, name: stripExt(path.Base(file))}
}

func stripExt(base string) string {
	if ext := path.Ext(base); ext != "" {
		return base[:len(base)-len(ext)]
	}
	return base
}

// skipEntry reports whether a directory entry is ignored during
// descriptor discovery (hidden and editor files).
func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
