package auditrepo

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/contracttest"
	auditrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
)

func TestContract_AuditRepo(t *testing.T) {
	contracttest.RunAuditRepo(t, func(t *testing.T) (auditrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
