package models

// TimeSlot задает время суток для напоминания.
type TimeSlot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// MinutesOfDay возвращает количество минут с полуночи.
func (t TimeSlot) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// MealTime — время одного приёма пищи. Порядок элементов в списке
// считается порядком приёмов пищи в течение дня.
type MealTime struct {
	Label  string `json:"label"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// Slot возвращает время приёма пищи как TimeSlot.
func (m MealTime) Slot() TimeSlot {
	return TimeSlot{Hour: m.Hour, Minute: m.Minute}
}

// ReminderSettings — декларативные настройки напоминаний пользователя.
// Любое изменение настроек приводит к полному пересозданию набора триггеров
// в планировщике, частичных обновлений не бывает.
type ReminderSettings struct {
	Username string `json:"username"`
	// Enabled — главный выключатель: при false ни одна категория
	// не регистрирует триггеры, независимо от собственных флагов.
	Enabled bool `json:"enabled"`

	MealRemindersEnabled bool       `json:"meal_reminders_enabled"`
	MealTimes            []MealTime `json:"meal_times"`

	WorkoutReminderEnabled bool     `json:"workout_reminder_enabled"`
	WorkoutTime            TimeSlot `json:"workout_time"`

	WeightReminderEnabled bool     `json:"weight_reminder_enabled"`
	WeightTime            TimeSlot `json:"weight_time"`
	WeightWeekday         int      `json:"weight_weekday"` // 0 — воскресенье ... 6 — суббота
}

// DefaultReminderSettings возвращает настройки, используемые при первом запуске
// и при нечитаемой записи в хранилище.
func DefaultReminderSettings(username string) *ReminderSettings {
	return &ReminderSettings{
		Username: username,
		Enabled:  false,
		MealTimes: []MealTime{
			{Label: "breakfast", Hour: 8, Minute: 0},
			{Label: "lunch", Hour: 13, Minute: 0},
			{Label: "dinner", Hour: 19, Minute: 0},
		},
		WorkoutTime:   TimeSlot{Hour: 18, Minute: 0},
		WeightTime:    TimeSlot{Hour: 9, Minute: 0},
		WeightWeekday: 1,
	}
}

// DummyMealTime используется для приёма времени приёма пищи из JSON-запроса.
type DummyMealTime struct {
	Label  string `json:"label" validate:"required"`
	Hour   int    `json:"hour" validate:"min=0,max=23"`
	Minute int    `json:"minute" validate:"min=0,max=59"`
}

// DummySettingsPatch — частичное обновление настроек напоминаний.
// Нулевые указатели означают «поле не менять».
type DummySettingsPatch struct {
	Enabled                *bool           `json:"enabled,omitempty"`
	MealRemindersEnabled   *bool           `json:"meal_reminders_enabled,omitempty"`
	MealTimes              []DummyMealTime `json:"meal_times,omitempty" validate:"omitempty,dive"`
	WorkoutReminderEnabled *bool           `json:"workout_reminder_enabled,omitempty"`
	WorkoutHour            *int            `json:"workout_hour,omitempty" validate:"omitempty,min=0,max=23"`
	WorkoutMinute          *int            `json:"workout_minute,omitempty" validate:"omitempty,min=0,max=59"`
	WeightReminderEnabled  *bool           `json:"weight_reminder_enabled,omitempty"`
	WeightHour             *int            `json:"weight_hour,omitempty" validate:"omitempty,min=0,max=23"`
	WeightMinute           *int            `json:"weight_minute,omitempty" validate:"omitempty,min=0,max=59"`
	WeightWeekday          *int            `json:"weight_weekday,omitempty" validate:"omitempty,min=0,max=6"`
}

// DummyMealSchedule используется для приёма расписания приёмов пищи целиком
// из JSON-запроса редактора расписания питания.
type DummyMealSchedule struct {
	MealTimes []DummyMealTime `json:"meal_times" validate:"required,min=1,dive"`
}

// TriggerKind — тип повторения триггера в планировщике.
type TriggerKind string

const (
	// TriggerDaily — срабатывает каждый день в заданное время.
	TriggerDaily TriggerKind = "daily"
	// TriggerWeekly — срабатывает раз в неделю в заданный день и время.
	TriggerWeekly TriggerKind = "weekly"
)

// Категории напоминаний, попадающие в полезную нагрузку триггера.
const (
	CategoryMeal    = "meal"
	CategoryWorkout = "workout"
	CategoryWeight  = "weight"
	CategoryTest    = "test"
)

// TriggerSpec описывает расписание одного повторяющегося триггера.
// Weekday учитывается только для недельных триггеров.
type TriggerSpec struct {
	Kind    TriggerKind `json:"kind"`
	Hour    int         `json:"hour"`
	Minute  int         `json:"minute"`
	Weekday int         `json:"weekday,omitempty"`
}

// ReminderPayload — полезная нагрузка доставляемого уведомления.
// Получатель маршрутизирует взаимодействие по категории, не обращаясь к настройкам.
type ReminderPayload struct {
	Username  string `json:"username"`
	Category  string `json:"category"`
	MealLabel string `json:"meal_label,omitempty"`
}
