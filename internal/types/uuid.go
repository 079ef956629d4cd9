package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_PROJECT          = "proj"
	UUID_PREFIX_MILESTONE        = "ms"
	UUID_PREFIX_DEFERRED_REVENUE = "drev"
	UUID_PREFIX_WIP              = "wip"
	UUID_PREFIX_JOURNAL_ENTRY    = "je"
	UUID_PREFIX_JOURNAL_LINE     = "jl"
)

// GenerateUUID returns a lexically sortable ULID in lower case.
func GenerateUUID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateUUIDWithPrefix returns "<prefix>_<ulid>", e.g. ms_01j9...
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
