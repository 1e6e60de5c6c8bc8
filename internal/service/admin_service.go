package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"pointshop/internal/database"
	"pointshop/internal/domain"
	"pointshop/internal/events"
	"pointshop/internal/metrics"
	"pointshop/internal/models"
	"pointshop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCodeLength = 191

// AdminService applies operator changes to inventory, settings and accounts.
// Each change commits together with its audit row.
type AdminService struct {
	uow       *database.UnitOfWork
	catalog   *CatalogService
	publisher events.Publisher
	metrics   *metrics.LedgerMetrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewAdminService(
	uow *database.UnitOfWork,
	catalog *CatalogService,
	publisher events.Publisher,
	m *metrics.LedgerMetrics,
	log *zap.Logger,
) *AdminService {
	if catalog == nil {
		catalog = NewCatalogService(uow, nil)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{uow: uow, catalog: catalog, publisher: publisher, metrics: m, logger: log, now: time.Now}
}

func (s *AdminService) SetClock(now func() time.Time) { s.now = now }

// NormalizeCodes trims every code, drops blanks and duplicates, and keeps input order.
func NormalizeCodes(codes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(c) > maxCodeLength {
			return nil, ErrInvalidRequest
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// SplitLines turns pasted text into one code per line.
func SplitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
}

// AddCoupons bulk-inserts codes into class. Codes already present anywhere in
// the inventory are skipped. It returns how many were added and the new stock.
func (s *AdminService) AddCoupons(ctx context.Context, adminID int64, class string, codes []string) (int64, int64, error) {
	if !domain.ValidClass(class) {
		return 0, 0, ErrInvalidRequest
	}
	codes, err := NormalizeCodes(codes)
	if err != nil {
		return 0, 0, err
	}
	if len(codes) == 0 {
		return 0, 0, ErrInvalidRequest
	}

	var added, stock int64
	err = s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		coupons := repository.NewCouponRepository(tx)
		var err error
		if added, err = coupons.BulkInsert(txCtx, class, codes, s.now().UTC()); err != nil {
			return err
		}
		all, err := coupons.Stock(txCtx)
		if err != nil {
			return err
		}
		stock = all[class]
		return s.audit(txCtx, tx, adminID, domain.AuditCouponsAdded, "coupons", class,
			map[string]int64{"submitted": int64(len(codes)), "added": added})
	})
	if err != nil {
		logFailure(s.logger, "add coupons failed", err, zap.String("coupon_class", class))
		return 0, 0, err
	}
	s.metrics.ObserveInventory(class, "add", added)
	s.logger.Info("coupons added", zap.Int64("admin_id", adminID), zap.String("coupon_class", class),
		zap.Int64("added", added), zap.Int64("stock", stock))
	if added > 0 {
		if err := s.publisher.Publish(ctx, domain.EventInventoryAdded, class, events.InventoryAdded{
			Class: class, Added: added, Stock: stock, AdminID: adminID,
		}); err != nil {
			s.logger.Warn("event publish failed", zap.String("event", domain.EventInventoryAdded), zap.Error(err))
		}
	}
	return added, stock, nil
}

// RemoveCoupons deletes unconsumed codes of class. Consumed codes are left alone.
func (s *AdminService) RemoveCoupons(ctx context.Context, adminID int64, class string, codes []string) (int64, int64, error) {
	if !domain.ValidClass(class) {
		return 0, 0, ErrInvalidRequest
	}
	codes, err := NormalizeCodes(codes)
	if err != nil {
		return 0, 0, err
	}
	if len(codes) == 0 {
		return 0, 0, ErrInvalidRequest
	}

	var removed, stock int64
	err = s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		coupons := repository.NewCouponRepository(tx)
		var err error
		if removed, err = coupons.RemoveUnused(txCtx, class, codes); err != nil {
			return err
		}
		all, err := coupons.Stock(txCtx)
		if err != nil {
			return err
		}
		stock = all[class]
		return s.audit(txCtx, tx, adminID, domain.AuditCouponsRemoved, "coupons", class,
			map[string]int64{"submitted": int64(len(codes)), "removed": removed})
	})
	if err != nil {
		logFailure(s.logger, "remove coupons failed", err, zap.String("coupon_class", class))
		return 0, 0, err
	}
	s.metrics.ObserveInventory(class, "remove", removed)
	s.logger.Info("coupons removed", zap.Int64("admin_id", adminID), zap.String("coupon_class", class),
		zap.Int64("removed", removed), zap.Int64("stock", stock))
	return removed, stock, nil
}

func (s *AdminService) SetCost(ctx context.Context, adminID int64, class string, cost int64) error {
	if !domain.ValidClass(class) || cost < 0 {
		return ErrInvalidRequest
	}
	return s.setSetting(ctx, adminID, domain.CostKey(class), strconv.FormatInt(cost, 10))
}

func (s *AdminService) SetReferralReward(ctx context.Context, adminID int64, reward int64) error {
	if reward < 0 {
		return ErrInvalidRequest
	}
	return s.setSetting(ctx, adminID, domain.SettingReferralReward, strconv.FormatInt(reward, 10))
}

// SetDailyLimit sets the per-account daily redemption cap; 0 removes it.
func (s *AdminService) SetDailyLimit(ctx context.Context, adminID int64, limit int64) error {
	if limit < 0 {
		return ErrInvalidRequest
	}
	return s.setSetting(ctx, adminID, domain.SettingDailyRedeemLimit, strconv.FormatInt(limit, 10))
}

func (s *AdminService) SetRedemptionEnabled(ctx context.Context, adminID int64, enabled bool) error {
	return s.setSetting(ctx, adminID, domain.SettingRedemptionEnabled, strconv.FormatBool(enabled))
}

func (s *AdminService) setSetting(ctx context.Context, adminID int64, key, value string) error {
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		if err := repository.NewSettingRepository(tx).Set(txCtx, key, value); err != nil {
			return err
		}
		return s.audit(txCtx, tx, adminID, domain.AuditSettingChanged, "setting", key, map[string]string{"value": value})
	})
	if err != nil {
		logFailure(s.logger, "setting change failed", err, zap.String("key", key))
		return err
	}
	s.catalog.Invalidate(ctx)
	s.logger.Info("setting changed", zap.Int64("admin_id", adminID), zap.String("key", key), zap.String("value", value))
	return nil
}

// GrantPoints adds delta (which may be negative) to an account's balance
// under the account lock. A deduction larger than the balance is refused.
func (s *AdminService) GrantPoints(ctx context.Context, adminID, accountID, delta int64) (*models.Account, error) {
	if accountID <= 0 || delta == 0 {
		return nil, ErrInvalidRequest
	}
	var account *models.Account
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		accounts := repository.NewAccountRepository(tx)
		locked, err := accounts.Lock(txCtx, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountInvalid
		}
		if err != nil {
			return err
		}
		if delta > 0 {
			err = accounts.Credit(txCtx, accountID, delta)
		} else {
			if locked.Points < -delta {
				return ErrInsufficientPoints
			}
			err = accounts.Debit(txCtx, accountID, -delta, s.now().UTC())
		}
		if err != nil {
			return err
		}
		if err := s.audit(txCtx, tx, adminID, domain.AuditPointsGranted, "account", formatID(accountID),
			map[string]int64{"delta": delta, "before": locked.Points}); err != nil {
			return err
		}
		account, err = accounts.GetByID(txCtx, accountID)
		return err
	})
	if err != nil {
		logFailure(s.logger, "grant points failed", err, zap.Int64("account_id", accountID))
		return nil, err
	}
	s.logger.Info("points granted", zap.Int64("admin_id", adminID), zap.Int64("account_id", accountID),
		zap.Int64("delta", delta), zap.Int64("balance", account.Points))
	return account, nil
}

func (s *AdminService) SetBanned(ctx context.Context, adminID, accountID int64, banned bool) (*models.Account, error) {
	if accountID <= 0 {
		return nil, ErrInvalidRequest
	}
	var account *models.Account
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		accounts := repository.NewAccountRepository(tx)
		locked, err := accounts.Lock(txCtx, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountInvalid
		}
		if err != nil {
			return err
		}
		if err := accounts.SetBanned(txCtx, accountID, banned); err != nil {
			return err
		}
		if err := s.audit(txCtx, tx, adminID, domain.AuditAccountBanned, "account", formatID(accountID),
			map[string]bool{"banned": banned, "was_banned": locked.Banned}); err != nil {
			return err
		}
		locked.Banned = banned
		account = locked
		return nil
	})
	if err != nil {
		logFailure(s.logger, "ban change failed", err, zap.Int64("account_id", accountID))
		return nil, err
	}
	s.logger.Info("ban changed", zap.Int64("admin_id", adminID), zap.Int64("account_id", accountID), zap.Bool("banned", banned))
	return account, nil
}

// RecentRedemptions returns the latest deliveries across all accounts.
func (s *AdminService) RecentRedemptions(ctx context.Context, limit int) ([]models.RedemptionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	list, err := repository.NewRedemptionRepository(s.uow.DB()).ListRecent(ctx, limit)
	return list, database.Classify(err)
}

func (s *AdminService) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := repository.NewAdminRepository(s.uow.DB()).GetDashboardStats(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	if stats.InconsistentItems > 0 {
		s.logger.Error("consumed coupons missing consumer", zap.Int64("count", stats.InconsistentItems))
	}
	return stats, nil
}

type Analytics struct {
	Days        int                          `json:"days"`
	Signups     []repository.TimeSeriesPoint `json:"signups"`
	Redemptions []repository.TimeSeriesPoint `json:"redemptions"`
}

func (s *AdminService) Analytics(ctx context.Context, days int) (*Analytics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	repo := repository.NewAdminRepository(s.uow.DB())
	now := s.now().UTC()
	signups, err := repo.SignupsByDay(ctx, days, now)
	if err != nil {
		return nil, database.Classify(err)
	}
	redemptions, err := repo.RedemptionsByDay(ctx, days, now)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &Analytics{Days: days, Signups: signups, Redemptions: redemptions}, nil
}

func (s *AdminService) AuditTrail(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := repository.NewAuditLogRepository(s.uow.DB()).ListRecent(ctx, limit)
	return list, database.Classify(err)
}

func (s *AdminService) audit(ctx context.Context, tx *gorm.DB, adminID int64, action, resource, resourceID string, meta any) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return repository.NewAuditLogRepository(tx).Create(ctx, &models.AuditLog{
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Metadata:   string(raw),
		CreatedAt:  s.now().UTC(),
	})
}
