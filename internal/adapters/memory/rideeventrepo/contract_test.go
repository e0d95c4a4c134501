package rideeventrepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	rideeventrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
)

func TestContract_RideEventRepo(t *testing.T) {
	contracttest.RunRideEventRepo(t, func(t *testing.T) (rideeventrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
