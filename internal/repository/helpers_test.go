package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"petcare/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedAnimal(t *testing.T, db *gorm.DB, chatID int64, name string) (*model.User, *model.Animal) {
	t.Helper()
	user := &model.User{TelegramID: chatID, ChatID: chatID, FirstName: "Ann"}
	require.NoError(t, db.Create(user).Error)
	animal := &model.Animal{ID: uuid.NewString(), UserID: user.ID, Name: name, Category: model.CategoryCat}
	require.NoError(t, db.Create(animal).Error)
	return user, animal
}

func newTask(ownerID string, due time.Time) *model.CareTask {
	return &model.CareTask{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Kind:            model.KindFeeding,
		DueAt:           due,
		Recurrence:      model.Daily,
		ReminderEnabled: true,
	}
}
