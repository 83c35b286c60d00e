package repository

import (
	"context"

	"gorm.io/gorm"

	"petcare/internal/model"
)

// AnimalRepository manages animals.
type AnimalRepository struct {
	db *gorm.DB
}

func NewAnimalRepository(db *gorm.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

func (r *AnimalRepository) Create(ctx context.Context, animal *model.Animal) error {
	if err := r.db.WithContext(ctx).Create(animal).Error; err != nil {
		return storeError("create animal", err)
	}
	return nil
}

func (r *AnimalRepository) Get(ctx context.Context, id string) (*model.Animal, error) {
	var animal model.Animal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&animal).Error; err != nil {
		return nil, storeError("find animal", err)
	}
	return &animal, nil
}

// FindByName matches the animal name case-insensitively within one user's animals.
func (r *AnimalRepository) FindByName(ctx context.Context, userID uint, name string) (*model.Animal, error) {
	var animal model.Animal
	if err := r.db.WithContext(ctx).Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		First(&animal).Error; err != nil {
		return nil, storeError("find animal", err)
	}
	return &animal, nil
}

func (r *AnimalRepository) ListByUser(ctx context.Context, userID uint) ([]model.Animal, error) {
	var animals []model.Animal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&animals).Error; err != nil {
		return nil, storeError("list animals", err)
	}
	return animals, nil
}

// Update writes the editable animal columns.
func (r *AnimalRepository) Update(ctx context.Context, animal *model.Animal) error {
	res := r.db.WithContext(ctx).Model(&model.Animal{ID: animal.ID}).
		Select("name", "category", "custom_category", "breed", "notes", "birth_date", "updated_at").
		Updates(animal)
	if res.Error != nil {
		return storeError("update animal", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("update animal")
	}
	return nil
}

func (r *AnimalRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Animal{})
	if res.Error != nil {
		return storeError("delete animal", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("delete animal")
	}
	return nil
}
