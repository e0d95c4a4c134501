package patientrepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	patientrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
)

func TestContract_PatientRepo(t *testing.T) {
	contracttest.RunPatientRepo(t, func(t *testing.T) (patientrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
