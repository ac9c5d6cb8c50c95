// Package runid assigns each ccm build/clean invocation a human
// label plus a UUID for machine correlation, logged on the start and
// finish lines of each invocation and, when enabled, stored with every
// build-history record; other log lines do not carry it
// (SPEC_FULL.md §2 component L). Grounded on cmd/sand/new_cmd.go's
// namegenerator.NewNameGenerator(seed).Generate() pattern, used there
// to mint sandbox IDs.
package runid

import (
	"time"

	"github.com/google/uuid"
	"github.com/goombaio/namegenerator"
)

// ID identifies one invocation: Label is memorable for humans reading
// logs, UUID is stable for joining against history rows.
type ID struct {
	Label string
	UUID  uuid.UUID
}

// String renders "label/uuid", suitable as a single slog attribute value.
func (i ID) String() string {
	return i.Label + "/" + i.UUID.String()
}

// New mints a fresh run identifier, seeding the name generator from
// the current time exactly as the teacher's NewCmd does for sandbox
// ids.
func New() ID {
	seed := time.Now().UTC().UnixNano()
	gen := namegenerator.NewNameGenerator(seed)
	return ID{
		Label: gen.Generate(),
		UUID:  uuid.New(),
	}
}
