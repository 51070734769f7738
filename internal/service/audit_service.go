package service

import (
	"context"

	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records booking and availability changes. Recording is best
// effort: a failed audit write is logged and never fails the operation.
type AuditService interface {
	Record(ctx context.Context, actorID uuid.UUID, action string, entityName string, entityID string, changes entity.JSON)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, actorID uuid.UUID, action string, entityName string, entityID string, changes entity.JSON) {
	metadata := entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
	}
	for k, v := range changes {
		metadata[k] = v
	}

	var userID *uuid.UUID
	if actorID != uuid.Nil {
		id := actorID
		userID = &id
	}

	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warnf("Failed to create audit log: %+v", err)
	}
}
