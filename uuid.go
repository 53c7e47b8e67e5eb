package bitrepair

import (
	"time"

	"github.com/google/uuid"
)

// NewTempSuffix returns a random token suitable for naming a sidecar temp
// file (e.g. "checksum.dat.tmp-<suffix>") so that concurrent runs never
// collide and a crash mid-write never clobbers the previous good sidecar.
// It retries on generation error with a 1ms backoff up to 10 times and
// panics only if all attempts fail, which should never happen under normal
// conditions.
func NewTempSuffix() string {
	var err error
	for i := 0; i < 10; i++ {
		var id uuid.UUID
		id, err = uuid.NewRandom()
		if err == nil {
			return id.String()
		}
		time.Sleep(1 * time.Millisecond)
	}
	panic(err)
}
