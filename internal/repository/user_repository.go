package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"petcare/internal/model"
)

// UserRepository handles Telegram accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram creates the user on first contact and refreshes chat and profile info afterwards.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, lastName, username string) (*model.User, error) {
	user := model.User{
		TelegramID: telegramID,
		ChatID:     chatID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
	}
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id", "first_name", "last_name", "username", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, storeError("upsert user", err)
	}
	// The conflict path does not report the existing primary key; reload it.
	if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, storeError("find user", err)
	}
	return &user, nil
}

// SetDigestMuted turns the daily digest off (muted) or back on for a user.
func (r *UserRepository) SetDigestMuted(ctx context.Context, userID uint, muted bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("digest_muted", muted)
	if res.Error != nil {
		return storeError("set digest", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("set digest")
	}
	return nil
}

// ListDigestRecipients returns users who have not muted the daily digest.
func (r *UserRepository) ListDigestRecipients(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("digest_muted = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, storeError("list digest recipients", err)
	}
	return users, nil
}
