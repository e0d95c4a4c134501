package driverrepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqltest"
	driverrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
)

func TestContract_SQLDriverRepo(t *testing.T) {
	for _, b := range sqltest.Backends() {
		t.Run(b.Name, func(t *testing.T) {
			contracttest.RunDriverRepo(t, func(t *testing.T) (driverrepoport.Repository, func()) {
				t.Helper()
				return NewRepo(b.Open(t)), nil
			})
		})
	}
}
