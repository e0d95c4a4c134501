package facilityrepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	facilityrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
)

func TestContract_FacilityRepo(t *testing.T) {
	contracttest.RunFacilityRepo(t, func(t *testing.T) (facilityrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
