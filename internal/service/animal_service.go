package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"petcare/internal/model"
)

// AnimalInput represents data required to register an animal.
type AnimalInput struct {
	Name           string
	Category       model.AnimalCategory
	CustomCategory string
	Breed          string
	Notes          string
	BirthDate      *time.Time
}

// AnimalPatch lists the fields an edit may change. Nil fields are left alone.
type AnimalPatch struct {
	Name           *string
	Category       *model.AnimalCategory
	CustomCategory *string
	Breed          *string
	Notes          *string
	BirthDate      *time.Time
	ClearBirthDate bool
}

type ownerCascade interface {
	DeleteOwner(ctx context.Context, ownerID string) (int, error)
}

// AnimalService manages animals and removes their tasks when they go away.
type AnimalService struct {
	repo  AnimalStore
	tasks ownerCascade
}

func NewAnimalService(repo AnimalStore, tasks ownerCascade) *AnimalService {
	return &AnimalService{repo: repo, tasks: tasks}
}

func (s *AnimalService) Create(ctx context.Context, user *model.User, input AnimalInput) (*model.Animal, error) {
	name := strings.TrimSpace(input.Name)
	if input.Category == "" {
		input.Category = model.CategoryCustom
	}
	if err := validateAnimal(name, input.Category, input.CustomCategory, input.BirthDate); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, user.ID, name, ""); err != nil {
		return nil, err
	}

	animal := model.Animal{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Name:           name,
		Category:       input.Category,
		CustomCategory: strings.TrimSpace(input.CustomCategory),
		Breed:          strings.TrimSpace(input.Breed),
		Notes:          strings.TrimSpace(input.Notes),
		BirthDate:      input.BirthDate,
	}
	if err := s.repo.Create(ctx, &animal); err != nil {
		return nil, err
	}
	return &animal, nil
}

// Update edits an animal of user. Animals of other users are reported as
// not found.
func (s *AnimalService) Update(ctx context.Context, user *model.User, animalID string, patch AnimalPatch) (*model.Animal, error) {
	animal, err := s.repo.Get(ctx, animalID)
	if err != nil {
		return nil, err
	}
	if animal.UserID != user.ID {
		return nil, fmt.Errorf("animal %s: %w", animalID, model.ErrNotFound)
	}

	if patch.Name != nil {
		animal.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		animal.Category = *patch.Category
		if animal.Category != model.CategoryCustom {
			animal.CustomCategory = ""
		}
	}
	if patch.CustomCategory != nil {
		animal.CustomCategory = strings.TrimSpace(*patch.CustomCategory)
	}
	if patch.Breed != nil {
		animal.Breed = strings.TrimSpace(*patch.Breed)
	}
	if patch.Notes != nil {
		animal.Notes = strings.TrimSpace(*patch.Notes)
	}
	switch {
	case patch.ClearBirthDate:
		animal.BirthDate = nil
	case patch.BirthDate != nil:
		born := *patch.BirthDate
		animal.BirthDate = &born
	}

	if err := validateAnimal(animal.Name, animal.Category, animal.CustomCategory, animal.BirthDate); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := s.ensureNameFree(ctx, user.ID, animal.Name, animal.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, animal); err != nil {
		return nil, err
	}
	return animal, nil
}

func validateAnimal(name string, category model.AnimalCategory, customCategory string, born *time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if _, ok := model.CategoryCatalog[category]; !ok {
		return fmt.Errorf("%w: unknown category %q", model.ErrValidation, category)
	}
	if category == model.CategoryCustom && strings.TrimSpace(customCategory) == "" {
		return fmt.Errorf("%w: custom category needs a name", model.ErrValidation)
	}
	if born != nil && born.After(time.Now()) {
		return fmt.Errorf("%w: birth date is in the future", model.ErrValidation)
	}
	return nil
}

// ensureNameFree fails when another animal of the user (other than selfID)
// already carries name, compared case-insensitively.
func (s *AnimalService) ensureNameFree(ctx context.Context, userID uint, name, selfID string) error {
	switch other, err := s.repo.FindByName(ctx, userID, name); {
	case err == nil && other.ID != selfID:
		return fmt.Errorf("%w: you already have a pet named %q", model.ErrValidation, name)
	case err == nil, errors.Is(err, model.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *AnimalService) List(ctx context.Context, user *model.User) ([]model.Animal, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

func (s *AnimalService) Get(ctx context.Context, animalID string) (*model.Animal, error) {
	return s.repo.Get(ctx, animalID)
}

func (s *AnimalService) FindByName(ctx context.Context, user *model.User, name string) (*model.Animal, error) {
	return s.repo.FindByName(ctx, user.ID, strings.TrimSpace(name))
}

// Delete removes an animal in two steps: first every task through the
// scheduler (cancelling reminders), then the animal itself.
func (s *AnimalService) Delete(ctx context.Context, animalID string) (int, error) {
	if _, err := s.repo.Get(ctx, animalID); err != nil {
		return 0, err
	}
	removed, err := s.tasks.DeleteOwner(ctx, animalID)
	if err != nil {
		return removed, err
	}
	if err := s.repo.Delete(ctx, animalID); err != nil {
		return removed, err
	}
	return removed, nil
}
