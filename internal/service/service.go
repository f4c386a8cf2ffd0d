// Package service реализует движок жизненного цикла коротких ссылок:
// создание с повторными попытками, разрешение, срок действия, пароли,
// замену слага и каскадное удаление с историей переходов
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tempizhere/linkcut/internal/auth"
	"github.com/tempizhere/linkcut/internal/geo"
	"github.com/tempizhere/linkcut/internal/models"
	"github.com/tempizhere/linkcut/internal/repository"
	"github.com/tempizhere/linkcut/internal/slug"
	"github.com/tempizhere/linkcut/internal/timeutil"
	"go.uber.org/zap"
)

var (
	ErrEmptyURL          = errors.New("empty URL")
	ErrSlugExhausted     = errors.New("failed to allocate unique slug")
	ErrInvalidSlugFormat = errors.New("invalid slug format")
	ErrForbidden         = errors.New("access denied")
	ErrNoHistory         = errors.New("no redirect history")
	ErrDeleteIncomplete  = errors.New("link deleted, history cleanup failed")
	ErrExpirationInPast  = errors.New("expiration date is in the past")
)

// maxSlugAttempts — количество попыток подобрать свободный слаг.
// Повторы немедленные, без пауз: коллизии редки при алфавите 62^6
const maxSlugAttempts = 5

// Locator определяет интерфейс коллаборатора геолокации
type Locator interface {
	Locate(ctx context.Context, ip string) (geo.Location, error)
}

// Notifier определяет интерфейс коллаборатора отправки уведомлений
type Notifier interface {
	Send(to, subject, body string) error
}

// Service реализует операции жизненного цикла коротких ссылок
type Service struct {
	links    repository.LinkRepository
	history  repository.HistoryRepository
	auth     *auth.Service
	locator  Locator
	notifier Notifier
	notifyTo string
	baseURL  string
	logger   *zap.Logger

	generateSlug func() (string, error)
	now          func() time.Time
}

// NewService создаёт новый экземпляр Service
func NewService(links repository.LinkRepository, history repository.HistoryRepository, authSvc *auth.Service, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		links:        links,
		history:      history,
		auth:         authSvc,
		baseURL:      baseURL,
		logger:       logger,
		generateSlug: slug.Generate,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithLocator подключает коллаборатора геолокации
func (s *Service) WithLocator(locator Locator) *Service {
	s.locator = locator
	return s
}

// WithNotifier подключает коллаборатора уведомлений и адрес получателя
func (s *Service) WithNotifier(notifier Notifier, to string) *Service {
	s.notifier = notifier
	s.notifyTo = to
	return s
}

// ShortURL собирает полный короткий URL из слага
func (s *Service) ShortURL(slugValue string) string {
	return strings.TrimRight(s.baseURL, "/") + "/" + slugValue
}

// CreateLink создаёт короткую ссылку. Для анонимных запросов сначала
// выполняется дедупликация по публичным ссылкам; при конфликте слагов
// выполняется до пяти попыток с независимой генерацией
func (s *Service) CreateLink(ctx context.Context, longURL string, userID int64) (models.CreateLinkResult, error) {
	if longURL == "" {
		return models.CreateLinkResult{}, ErrEmptyURL
	}

	if userID == auth.AnonymousUserID {
		existing, err := s.links.FindPublicByLongURL(longURL)
		if err == nil {
			return models.CreateLinkResult{Slug: existing, CreatedBefore: true}, nil
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return models.CreateLinkResult{}, err
		}
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return models.CreateLinkResult{}, ctx.Err()
		default:
		}

		candidate, err := s.generateSlug()
		if err != nil {
			return models.CreateLinkResult{}, fmt.Errorf("generate slug: %w", err)
		}
		err = s.links.Save(models.Link{
			Slug:      candidate,
			LongURL:   longURL,
			UserID:    userID,
			IsPrivate: userID != auth.AnonymousUserID,
		})
		if err == nil {
			return models.CreateLinkResult{Slug: candidate, CreatedBefore: false}, nil
		}
		if errors.Is(err, repository.ErrSlugExists) {
			s.logger.Info("Slug collision, retrying", zap.String("slug", candidate), zap.Int("attempt", attempt+1))
			continue
		}
		return models.CreateLinkResult{}, err
	}
	return models.CreateLinkResult{}, ErrSlugExhausted
}

// ResolveLink возвращает оригинальный URL по слагу. Для аутентифицированных
// обращений событие перехода записывается в историю best-effort: сбой записи
// логируется и не отменяет разрешение
func (s *Service) ResolveLink(ctx context.Context, slugValue, password, actor, ip string) (string, error) {
	longURL, err := s.links.Resolve(slugValue, password, s.now())
	if err != nil {
		return "", err
	}
	if actor != "" {
		s.recordRedirect(ctx, slugValue, longURL, actor, ip)
	}
	return longURL, nil
}

// recordRedirect записывает событие перехода с best-effort геолокацией
func (s *Service) recordRedirect(ctx context.Context, slugValue, longURL, actor, ip string) {
	city, country := geo.Unknown, geo.Unknown
	if s.locator != nil {
		if loc, err := s.locator.Locate(ctx, ip); err == nil {
			city, country = loc.City, loc.Country
		}
	}
	event := models.RedirectEvent{
		Slug:            slugValue,
		LongURL:         longURL,
		CreatedBy:       actor,
		LocationCity:    city,
		LocationCountry: country,
		Time:            s.now().Format(timeutil.LayoutSeconds),
	}
	if err := s.history.Append(event); err != nil {
		s.logger.Warn("Failed to append redirect history", zap.String("slug", slugValue), zap.Error(err))
	}
}

// SetExpiration устанавливает срок действия ссылки. Время передаётся в
// часовом поясе пользователя и конвертируется в UTC; момент в прошлом отклоняется
func (s *Service) SetExpiration(slugValue, localTime, timezone string) error {
	expiration, err := timeutil.ConvertLocalToUTC(localTime, timezone)
	if err != nil {
		return err
	}
	if !expiration.After(s.now()) {
		return ErrExpirationInPast
	}
	return s.links.SetExpiration(slugValue, &expiration)
}

// RemoveExpiration снимает срок действия ссылки; повторное снятие безопасно
func (s *Service) RemoveExpiration(slugValue string) error {
	return s.links.SetExpiration(slugValue, nil)
}

// CustomizeSlug заменяет слаг ссылки на пользовательский. Новый слаг
// проверяется по алфавиту, операция доступна только владельцу.
// Замена — переименование: после копирования записи старый слаг удаляется,
// история переходов переносится на новый слаг
func (s *Service) CustomizeSlug(oldSlug, newSlug string, userID int64) error {
	if !slug.ValidateCustom(newSlug) {
		return ErrInvalidSlugFormat
	}
	if err := s.requireOwner(oldSlug, userID); err != nil {
		return err
	}
	if err := s.links.Rekey(oldSlug, newSlug); err != nil {
		return err
	}
	if err := s.links.Delete(oldSlug); err != nil {
		s.logger.Error("Failed to delete old slug after rekey", zap.String("old_slug", oldSlug), zap.String("new_slug", newSlug), zap.Error(err))
		return fmt.Errorf("%w: old slug %s left in place", ErrDeleteIncomplete, oldSlug)
	}
	if err := s.history.Rekey(oldSlug, newSlug); err != nil {
		s.logger.Error("Failed to move redirect history after rekey", zap.String("old_slug", oldSlug), zap.String("new_slug", newSlug), zap.Error(err))
		return fmt.Errorf("%w: history left under old slug %s", ErrDeleteIncomplete, oldSlug)
	}
	return nil
}

// SetPassword устанавливает пароль на ссылку, операция доступна только владельцу
func (s *Service) SetPassword(slugValue string, userID int64, password string) error {
	if err := s.requireOwner(slugValue, userID); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.links.SetPassword(slugValue, hash); err != nil {
		return err
	}
	s.notify("LinkCut // Установлен пароль на ссылку", fmt.Sprintf("На ссылку %s установлен пароль.", s.ShortURL(slugValue)))
	return nil
}

// RemovePassword снимает пароль со ссылки, операция доступна только владельцу.
// Признак приватности при этом не снимается
func (s *Service) RemovePassword(slugValue string, userID int64) error {
	if err := s.requireOwner(slugValue, userID); err != nil {
		return err
	}
	if err := s.links.ClearPassword(slugValue); err != nil {
		return err
	}
	s.notify("LinkCut // Пароль со ссылки снят", fmt.Sprintf("Со ссылки %s снят пароль.", s.ShortURL(slugValue)))
	return nil
}

// DeleteLink удаляет ссылку и её историю переходов, операция доступна
// только владельцу. Сначала удаляется запись ссылки, затем история;
// сбой очистки истории после удаления записи не считается успехом
func (s *Service) DeleteLink(slugValue string, userID int64) error {
	if err := s.requireOwner(slugValue, userID); err != nil {
		return err
	}
	if err := s.links.Delete(slugValue); err != nil {
		return err
	}
	if _, err := s.history.DeleteBySlug(slugValue); err != nil {
		s.logger.Error("Failed to delete redirect history after link deletion", zap.String("slug", slugValue), zap.Error(err))
		return fmt.Errorf("%w: slug %s", ErrDeleteIncomplete, slugValue)
	}
	s.notify("LinkCut // Ссылка удалена", fmt.Sprintf("Ссылка %s и её история переходов удалены.", s.ShortURL(slugValue)))
	return nil
}

// ListRedirectHistory возвращает историю переходов по слагу. Пустая история —
// отдельное состояние ErrNoHistory, отличное от отсутствия ссылки.
// Время событий конвертируется в часовой пояс пользователя
func (s *Service) ListRedirectHistory(slugValue, timezone string) ([]models.RedirectEvent, error) {
	events, err := s.history.ListBySlug(slugValue)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoHistory
	}
	if timezone != "" {
		for i := range events {
			events[i].Time = timeutil.ConvertUTCToLocal(events[i].Time, timezone)
		}
	}
	return events, nil
}

// ListUserLinks возвращает ссылки пользователя со сроком действия
// в его часовом поясе
func (s *Service) ListUserLinks(userID int64, timezone string) ([]models.LinkResponse, error) {
	links, err := s.links.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	resp := make([]models.LinkResponse, len(links))
	for i, link := range links {
		item := models.LinkResponse{
			Slug:        link.Slug,
			ShortURL:    s.ShortURL(link.Slug),
			LongURL:     link.LongURL,
			IsPrivate:   link.IsPrivate,
			IsProtected: link.PasswordHash != "",
			HopCounts:   link.HopCounts,
		}
		if link.ExpirationDate != nil {
			exp := link.ExpirationDate.Format(timeutil.LayoutSeconds)
			if timezone != "" {
				exp = timeutil.ConvertUTCToLocal(exp, timezone)
			}
			item.ExpirationDate = exp
		}
		resp[i] = item
	}
	return resp, nil
}

// Stats возвращает агрегированную статистику сервиса
func (s *Service) Stats() (models.Stats, error) {
	links, err := s.links.Count()
	if err != nil {
		return models.Stats{}, err
	}
	redirects, err := s.history.Count()
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{Links: links, Redirects: redirects}, nil
}

// requireOwner проверяет, что ссылкой владеет указанный пользователь
func (s *Service) requireOwner(slugValue string, userID int64) error {
	owner, err := s.auth.OwnerOf(slugValue)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

// notify отправляет уведомление fire-and-forget, если настроен получатель
func (s *Service) notify(subject, body string) {
	if s.notifier == nil || s.notifyTo == "" {
		return
	}
	go func() {
		if err := s.notifier.Send(s.notifyTo, subject, body); err != nil {
			s.logger.Warn("Failed to send notification", zap.String("subject", subject), zap.Error(err))
		}
	}()
}
