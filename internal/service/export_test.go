package service

import (
	"pointshop/internal/models"

	"gorm.io/gorm"
)

func (s *RedemptionService) SetBeforeConsume(fn func(tx *gorm.DB, item *models.CouponItem)) {
	s.beforeConsume = fn
}

func (s *VerificationService) SetBeforeBind(fn func(tx *gorm.DB)) { s.beforeBind = fn }
