package worker

import (
	"github.com/spec-kit/wallet-access/internal/service"
)

// StartMaintenanceWorker registers the background event handlers:
// audit logging and legacy credential migration.
func StartMaintenanceWorker(audit *service.AuditService, migrator *service.CredentialMigrator) {
	if audit != nil {
		audit.RegisterHandlers()
	}
	if migrator != nil {
		migrator.RegisterHandlers()
	}
}
