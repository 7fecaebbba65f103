package worker

import (
	"github.com/spec-kit/event-service/internal/service"
)

// StartAuditWorker registers audit and cache invalidation handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
