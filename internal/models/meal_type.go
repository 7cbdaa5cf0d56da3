// internal/models/meal_type.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidMealType = errors.New("invalid meal type")
	ErrInvalidDate     = errors.New("invalid date")
)

// DateLayout is the calendar-day format used for diary, exercise and weight dates.
const DateLayout = "2006-01-02"

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
	Snack1    MealType = "snack1"
	Snack2    MealType = "snack2"
)

// AllMealTypes lists every meal type in display order.
var AllMealTypes = []MealType{Breakfast, Lunch, Dinner, Snack, Snack1, Snack2}

// Danish names used by older clients and exported databases.
var mealTypeAliases = map[string]MealType{
	"morgenmad": Breakfast,
	"frokost":   Lunch,
	"aftensmad": Dinner,
}

var mealTypeDisplayNames = map[MealType]string{
	Breakfast: "Breakfast",
	Lunch:     "Lunch",
	Dinner:    "Dinner",
	Snack:     "Snack",
	Snack1:    "Snack 1",
	Snack2:    "Snack 2",
}

func (m MealType) Valid() bool {
	_, ok := mealTypeDisplayNames[m]
	return ok
}

func (m MealType) DisplayName() string {
	if name, ok := mealTypeDisplayNames[m]; ok {
		return name
	}
	return string(m)
}

// ParseMealType normalizes s into one of AllMealTypes. Case and surrounding
// whitespace are ignored and the Danish aliases are accepted.
func ParseMealType(s string) (MealType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if mt := MealType(key); mt.Valid() {
		return mt, nil
	}
	if mt, ok := mealTypeAliases[key]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
