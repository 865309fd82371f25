package store

import (
	"strings"

	"cloudconsole/internal/model"

	"github.com/google/uuid"
)

// newID returns <prefix>-<12 hex chars>, e.g. "inst-3f2a9c01d4e7".
func newID(k model.Kind) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return k.IDPrefix() + "-" + suffix
}
