package vehiclerepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqltest"
	vehiclerepoport "github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

func TestContract_SQLVehicleRepo(t *testing.T) {
	for _, b := range sqltest.Backends() {
		t.Run(b.Name, func(t *testing.T) {
			contracttest.RunVehicleRepo(t, func(t *testing.T) (vehiclerepoport.Repository, func()) {
				t.Helper()
				return NewRepo(b.Open(t)), nil
			})
		})
	}
}
