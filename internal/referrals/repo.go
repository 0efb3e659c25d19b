package referrals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
)

// scheduleRowID: the leaderboard schedule is a single-row table.
const scheduleRowID = 1

// Repository persists referral records, their event history, and the weekly
// reset schedule.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindRecord(ctx context.Context, vendorID uuid.UUID) (*models.ReferralRecord, error)
	CreateRecord(ctx context.Context, record *models.ReferralRecord) error
	AddPoints(ctx context.Context, vendorID uuid.UUID, points int, eventType enums.ReferralEventType) error
	TopWeekly(ctx context.Context, limit int) ([]models.ReferralRecord, error)
	ResetWeeklyPoints(ctx context.Context) (int64, error)

	CreateEvent(ctx context.Context, event *models.ReferralEvent) error
	HasSignupEvent(ctx context.Context, vendorID, customerID uuid.UUID) (bool, error)

	FindSchedule(ctx context.Context) (*models.LeaderboardSchedule, error)
	CreateSchedule(ctx context.Context, schedule *models.LeaderboardSchedule) error
	UpdateSchedule(ctx context.Context, fields map[string]any) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRecord(ctx context.Context, vendorID uuid.UUID) (*models.ReferralRecord, error) {
	var record models.ReferralRecord
	if err := r.db.WithContext(ctx).First(&record, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.ReferralRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) AddPoints(ctx context.Context, vendorID uuid.UUID, points int, eventType enums.ReferralEventType) error {
	counter := "successful_referrals"
	if eventType == enums.ReferralEventSignup {
		counter = "referred_customers"
	}
	return r.db.WithContext(ctx).Exec(
		`UPDATE referral_records
		 SET total_points = total_points + ?,
		     weekly_points = weekly_points + ?,
		     `+counter+` = `+counter+` + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE vendor_id = ?`,
		points, points, vendorID,
	).Error
}

func (r *repository) TopWeekly(ctx context.Context, limit int) ([]models.ReferralRecord, error) {
	var records []models.ReferralRecord
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("weekly_points DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repository) ResetWeeklyPoints(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE referral_records
		 SET weekly_points = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE weekly_points <> 0`,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.ReferralEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) HasSignupEvent(ctx context.Context, vendorID, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralEvent{}).
		Where("vendor_id = ? AND referred_customer_id = ? AND type = ?",
			vendorID, customerID, enums.ReferralEventSignup).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindSchedule(ctx context.Context) (*models.LeaderboardSchedule, error) {
	var schedule models.LeaderboardSchedule
	if err := r.db.WithContext(ctx).First(&schedule, "id = ?", scheduleRowID).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) CreateSchedule(ctx context.Context, schedule *models.LeaderboardSchedule) error {
	schedule.ID = scheduleRowID
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *repository) UpdateSchedule(ctx context.Context, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.LeaderboardSchedule{}).
		Where("id = ?", scheduleRowID).
		Updates(fields).Error
}
