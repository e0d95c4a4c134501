package sequence

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	sequenceport "github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

func TestContract_Sequence(t *testing.T) {
	contracttest.RunSequence(t, func(t *testing.T) (sequenceport.Generator, func()) {
		t.Helper()
		return NewGenerator(), nil
	})
}
