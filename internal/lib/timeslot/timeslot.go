// Package timeslot проверяет последовательности времён суток на уникальность
// и строгий хронологический порядок. Используется при сохранении времён
// приёмов пищи в настройках напоминаний и в редакторе расписания питания.
package timeslot

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// ErrDuplicateTime — в последовательности встретились два одинаковых времени.
var ErrDuplicateTime = errors.New("duplicate time")

// ErrOutOfOrder — времена идут не по возрастанию.
var ErrOutOfOrder = errors.New("time out of chronological order")

// ErrInvalidTime — час или минута вне допустимого диапазона.
var ErrInvalidTime = errors.New("invalid time of day")

// ConflictError описывает первое найденное нарушение: индекс проблемного
// элемента и вид нарушения.
type ConflictError struct {
	Index  int
	Reason error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %d: %s", e.Index, e.Reason)
}

func (e *ConflictError) Unwrap() error {
	return e.Reason
}

// ValidateChronology проверяет последовательность времён в том порядке,
// в котором её передал вызывающий. Порядок считается задуманным порядком
// в течение дня (завтрак раньше обеда), функция ничего не пересортировывает:
// перепутанный порядок — ошибка конфигурации, которую нужно показать, а не спрятать.
//
// Правила:
//  1. каждый элемент — корректное время суток;
//  2. нет двух одинаковых времён (сравнение в минутах с полуночи),
//     ошибка указывает на второй элемент первой совпавшей пары;
//  3. времена строго возрастают, ошибка указывает на первый нарушивший индекс.
func ValidateChronology(slots []models.TimeSlot) error {
	for i, s := range slots {
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return &ConflictError{Index: i, Reason: ErrInvalidTime}
		}
	}

	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].MinutesOfDay() == slots[j].MinutesOfDay() {
				return &ConflictError{Index: j, Reason: ErrDuplicateTime}
			}
		}
	}

	for i := 1; i < len(slots); i++ {
		if slots[i].MinutesOfDay() <= slots[i-1].MinutesOfDay() {
			return &ConflictError{Index: i, Reason: ErrOutOfOrder}
		}
	}
	return nil
}

// ValidateMealTimes проверяет времена приёмов пищи в порядке их следования в списке.
func ValidateMealTimes(meals []models.MealTime) error {
	slots := make([]models.TimeSlot, 0, len(meals))
	for _, m := range meals {
		slots = append(slots, m.Slot())
	}
	return ValidateChronology(slots)
}
