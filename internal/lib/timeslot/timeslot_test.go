package timeslot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/timeslot"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

func TestValidateChronology(t *testing.T) {
	tests := []struct {
		name      string
		slots     []models.TimeSlot
		wantErr   error
		wantIndex int
	}{
		{
			name: "корректное расписание из четырех приемов пищи",
			slots: []models.TimeSlot{
				{Hour: 7, Minute: 0}, {Hour: 12, Minute: 0},
				{Hour: 16, Minute: 0}, {Hour: 20, Minute: 0},
			},
		},
		{
			name:  "пустая последовательность",
			slots: nil,
		},
		{
			name:  "единственное время",
			slots: []models.TimeSlot{{Hour: 9, Minute: 30}},
		},
		{
			name:      "дубликат времени",
			slots:     []models.TimeSlot{{Hour: 7, Minute: 0}, {Hour: 7, Minute: 0}},
			wantErr:   timeslot.ErrDuplicateTime,
			wantIndex: 1,
		},
		{
			name: "дубликат не соседних элементов",
			slots: []models.TimeSlot{
				{Hour: 7, Minute: 0}, {Hour: 12, Minute: 0}, {Hour: 7, Minute: 0},
			},
			wantErr:   timeslot.ErrDuplicateTime,
			wantIndex: 2,
		},
		{
			name:      "нарушение хронологии",
			slots:     []models.TimeSlot{{Hour: 12, Minute: 0}, {Hour: 7, Minute: 0}},
			wantErr:   timeslot.ErrOutOfOrder,
			wantIndex: 1,
		},
		{
			name: "нарушение хронологии в середине",
			slots: []models.TimeSlot{
				{Hour: 7, Minute: 0}, {Hour: 13, Minute: 0},
				{Hour: 12, Minute: 59}, {Hour: 20, Minute: 0},
			},
			wantErr:   timeslot.ErrOutOfOrder,
			wantIndex: 2,
		},
		{
			name:      "некорректный час",
			slots:     []models.TimeSlot{{Hour: 24, Minute: 0}},
			wantErr:   timeslot.ErrInvalidTime,
			wantIndex: 0,
		},
		{
			name:      "некорректная минута",
			slots:     []models.TimeSlot{{Hour: 7, Minute: 0}, {Hour: 8, Minute: 60}},
			wantErr:   timeslot.ErrInvalidTime,
			wantIndex: 1,
		},
		{
			name: "разница в одну минуту допустима",
			slots: []models.TimeSlot{
				{Hour: 7, Minute: 0}, {Hour: 7, Minute: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := timeslot.ValidateChronology(tt.slots)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var conflict *timeslot.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.wantIndex, conflict.Index)
		})
	}
}

func TestValidateMealTimes(t *testing.T) {
	meals := []models.MealTime{
		{Label: "breakfast", Hour: 8, Minute: 0},
		{Label: "lunch", Hour: 13, Minute: 0},
		{Label: "dinner", Hour: 19, Minute: 0},
	}
	assert.NoError(t, timeslot.ValidateMealTimes(meals))

	// Порядок в списке считается задуманным порядком дня: ужин раньше обеда — ошибка.
	swapped := []models.MealTime{meals[0], meals[2], meals[1]}
	err := timeslot.ValidateMealTimes(swapped)
	require.Error(t, err)
	assert.ErrorIs(t, err, timeslot.ErrOutOfOrder)

	var conflict *timeslot.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.Index)
}
