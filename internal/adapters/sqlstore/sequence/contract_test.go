package sequence

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqltest"
	sequenceport "github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

func TestContract_SQLSequence(t *testing.T) {
	for _, b := range sqltest.Backends() {
		t.Run(b.Name, func(t *testing.T) {
			contracttest.RunSequence(t, func(t *testing.T) (sequenceport.Generator, func()) {
				t.Helper()
				return NewGenerator(b.Open(t)), nil
			})
		})
	}
}
