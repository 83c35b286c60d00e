package model

import (
	"strconv"
	"strings"
	"time"
)

// AnimalCategory is the species tag of an animal.
type AnimalCategory string

const (
	CategoryCat        AnimalCategory = "cat"
	CategoryDog        AnimalCategory = "dog"
	CategoryHamster    AnimalCategory = "hamster"
	CategoryGuineaPig  AnimalCategory = "guinea_pig"
	CategoryParrot     AnimalCategory = "parrot"
	CategoryRabbit     AnimalCategory = "rabbit"
	CategoryFish       AnimalCategory = "fish"
	CategoryTurtle     AnimalCategory = "turtle"
	CategorySnake      AnimalCategory = "snake"
	CategoryLizard     AnimalCategory = "lizard"
	CategoryFerret     AnimalCategory = "ferret"
	CategoryChinchilla AnimalCategory = "chinchilla"
	CategoryCustom     AnimalCategory = "custom"
)

// CategoryInfo holds display attributes of a category.
type CategoryInfo struct {
	Label string
	Icon  string
}

// CategoryCatalog maps every category to its display attributes.
var CategoryCatalog = map[AnimalCategory]CategoryInfo{
	CategoryCat:        {Label: "Cat", Icon: "🐱"},
	CategoryDog:        {Label: "Dog", Icon: "🐶"},
	CategoryHamster:    {Label: "Hamster", Icon: "🐹"},
	CategoryGuineaPig:  {Label: "Guinea Pig", Icon: "🐹"},
	CategoryParrot:     {Label: "Parrot", Icon: "🦜"},
	CategoryRabbit:     {Label: "Rabbit", Icon: "🐰"},
	CategoryFish:       {Label: "Fish", Icon: "🐟"},
	CategoryTurtle:     {Label: "Turtle", Icon: "🐢"},
	CategorySnake:      {Label: "Snake", Icon: "🐍"},
	CategoryLizard:     {Label: "Lizard", Icon: "🦎"},
	CategoryFerret:     {Label: "Ferret", Icon: "🦦"},
	CategoryChinchilla: {Label: "Chinchilla", Icon: "🐭"},
	CategoryCustom:     {Label: "Custom", Icon: "🐾"},
}

// ParseCategory resolves a category tag or label, case-insensitively.
func ParseCategory(raw string) (AnimalCategory, bool) {
	key := normalizeTag(raw)
	for category, info := range CategoryCatalog {
		if key == string(category) || key == normalizeTag(info.Label) {
			return category, true
		}
	}
	return "", false
}

// Animal is a pet owned by a user. Tasks reference it through OwnerID.
type Animal struct {
	ID             string         `gorm:"primaryKey;size:36"`
	UserID         uint           `gorm:"index:idx_user_animal_name,unique"`
	Name           string         `gorm:"index:idx_user_animal_name,unique"`
	Category       AnimalCategory `gorm:"size:32"`
	CustomCategory string
	Breed          string
	Notes          string
	BirthDate      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayCategory returns the custom category name for custom animals.
func (a Animal) DisplayCategory() string {
	if a.Category == CategoryCustom && strings.TrimSpace(a.CustomCategory) != "" {
		return a.CustomCategory
	}
	if info, ok := CategoryCatalog[a.Category]; ok {
		return info.Label
	}
	return string(a.Category)
}

// AgeAt describes the animal's age at now in whole years, or whole months
// for animals younger than a year.
func (a Animal) AgeAt(now time.Time) string {
	if a.BirthDate == nil {
		return "Unknown"
	}
	born := a.BirthDate.In(now.Location())
	months := (now.Year()-born.Year())*12 + int(now.Month()-born.Month())
	if now.Day() < born.Day() {
		months--
	}
	switch {
	case months >= 12:
		return plural(months/12, "year")
	case months > 0:
		return plural(months, "month")
	default:
		return "Less than a month"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func normalizeTag(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}
