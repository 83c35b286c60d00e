package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"petcare/internal/model"
	"petcare/internal/repository"
)

type reminderPortMock struct {
	mock.Mock
}

func (m *reminderPortMock) Schedule(ctx context.Context, taskID string, dueAt time.Time, text string) (string, error) {
	args := m.Called(ctx, taskID, dueAt, text)
	return args.String(0), args.Error(1)
}

func (m *reminderPortMock) Cancel(ctx context.Context, handle string) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) Notify(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedOwner(t *testing.T, db *gorm.DB, chatID int64, name string) (*model.User, *model.Animal) {
	t.Helper()
	user := &model.User{TelegramID: chatID, ChatID: chatID, FirstName: "Ann"}
	require.NoError(t, db.Create(user).Error)
	animal := &model.Animal{ID: uuid.NewString(), UserID: user.ID, Name: name, Category: model.CategoryDog}
	require.NoError(t, db.Create(animal).Error)
	return user, animal
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

var nopLog = zerolog.Nop()
