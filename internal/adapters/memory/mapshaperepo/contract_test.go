package mapshaperepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	mapshaperepoport "github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
)

func TestContract_MapShapeRepo(t *testing.T) {
	contracttest.RunMapShapeRepo(t, func(t *testing.T) (mapshaperepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
