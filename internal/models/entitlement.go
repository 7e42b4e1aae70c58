// Package models содержит доменные структуры: запись о правах доступа (entitlement),
// настройки напоминаний, а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Status обозначает текущий статус прав пользователя на премиум-функции.
type Status string

const (
	// StatusNone — запись создана, но триал и подписка ещё не начинались.
	StatusNone Status = "none"
	// StatusTrial — действует пробный период.
	StatusTrial Status = "trial"
	// StatusActive — действует оплаченная подписка.
	StatusActive Status = "active"
	// StatusExpired — триал или подписка закончились.
	StatusExpired Status = "expired"
	// StatusCancelled — подписка отменена пользователем.
	StatusCancelled Status = "cancelled"
)

// EntitlementRecord хранит временные границы триала и подписки пользователя.
// Поле Status — последний известный статус, носит справочный характер:
// актуальный статус всегда выводится заново из временных меток.
// Нулевые указатели означают, что соответствующее окно ещё не открывалось.
type EntitlementRecord struct {
	Username          string     `json:"username"`
	Status            Status     `json:"status"`
	TrialStart        *time.Time `json:"trial_start,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty"`
	HasSeenGate       bool       `json:"has_seen_gate"`
}

// NewEntitlementRecord возвращает запись для пользователя, который ещё ничего не покупал.
func NewEntitlementRecord(username string) *EntitlementRecord {
	return &EntitlementRecord{
		Username: username,
		Status:   StatusNone,
	}
}

// DummyActivate используется для приёма данных из JSON-запроса на активацию подписки.
// Дата окончания необязательна: при её отсутствии подписка действует один календарный месяц.
type DummyActivate struct {
	EndDate string `json:"end_date" validate:"omitempty,datetime=2006-01-02"` // Дата окончания в формате 2006-01-02
}

// EntitlementView — ответ на запрос текущего статуса прав.
type EntitlementView struct {
	Status             Status `json:"status"`
	RemainingTrialDays int    `json:"remaining_trial_days"`
	IsPremium          bool   `json:"is_premium"`
	HasSeenGate        bool   `json:"has_seen_gate"`
}
