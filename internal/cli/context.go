package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/wire"
)

// NewContext creates a context carrying the configured actor.
// The gateway reads the caller identity from it.
func NewContext() context.Context {
	return wire.CallerContext(context.Background())
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, raw)
	}
	return id, nil
}

// describeError renders field errors one per line for terminal output.
func describeError(err error) string {
	fields := apperrors.FieldsOf(err)
	if len(fields) == 0 {
		return err.Error()
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s\n", name, fields[name])
	}
	return strings.TrimRight(b.String(), "\n")
}
