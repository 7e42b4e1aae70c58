// Package sender реализует доставку напоминаний из очереди в шлюз push-уведомлений.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// Заголовки уведомлений по категориям.
var titles = map[string]string{
	models.CategoryMeal:    "Время приёма пищи",
	models.CategoryWorkout: "Пора на тренировку",
	models.CategoryWeight:  "Не забудьте взвеситься",
	models.CategoryTest:    "Проверка уведомлений",
}

// PushMessage — тело запроса к шлюзу доставки.
type PushMessage struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Label    string `json:"label,omitempty"`
}

// Service отправляет уведомления во внешний шлюз по HTTP.
type Service struct {
	client  *http.Client
	log     *slog.Logger
	url     string
	token   string
	timeout time.Duration
}

// NewService создает новый экземпляр Service.
func NewService(log *slog.Logger, url, token string, timeout time.Duration) *Service {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		client:  &http.Client{Timeout: timeout},
		log:     log,
		url:     url,
		token:   token,
		timeout: timeout,
	}
}

// HandleMessage обрабатывает одно сообщение из очереди. Возвращённая ошибка
// приводит к повторной постановке сообщения в очередь, поэтому нечитаемые
// сообщения отбрасываются без ошибки.
func (s *Service) HandleMessage(body []byte) error {
	const op = "services.sender.HandleMessage"

	var payload models.ReminderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Error("failed to unmarshal reminder payload, dropping message", sl.Err(err))
		return nil
	}
	if payload.Username == "" {
		s.log.Error("reminder payload without username, dropping message")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.push(ctx, payload); err != nil {
		s.log.Error("failed to push notification",
			slog.String("username", payload.Username),
			slog.String("category", payload.Category), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notification delivered",
		slog.String("username", payload.Username),
		slog.String("category", payload.Category))
	return nil
}

func (s *Service) push(ctx context.Context, payload models.ReminderPayload) error {
	msg := PushMessage{
		Username: payload.Username,
		Title:    titles[payload.Category],
		Category: payload.Category,
		Label:    payload.MealLabel,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
