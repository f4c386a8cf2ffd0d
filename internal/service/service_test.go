package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tempizhere/linkcut/internal/auth"
	"github.com/tempizhere/linkcut/internal/geo"
	"github.com/tempizhere/linkcut/internal/models"
	"github.com/tempizhere/linkcut/internal/repository"
	"go.uber.org/zap"
)

// failingHistory симулирует отказ хранилища истории
type failingHistory struct {
	*repository.MemoryHistoryRepository
	failAppend bool
	failRekey  bool
	failDelete bool
}

func (f *failingHistory) Append(event models.RedirectEvent) error {
	if f.failAppend {
		return errors.New("history down")
	}
	return f.MemoryHistoryRepository.Append(event)
}

func (f *failingHistory) Rekey(oldSlug, newSlug string) error {
	if f.failRekey {
		return errors.New("history down")
	}
	return f.MemoryHistoryRepository.Rekey(oldSlug, newSlug)
}

func (f *failingHistory) DeleteBySlug(slug string) (int64, error) {
	if f.failDelete {
		return 0, errors.New("history down")
	}
	return f.MemoryHistoryRepository.DeleteBySlug(slug)
}

// stubLocator возвращает фиксированные геоданные
type stubLocator struct {
	loc geo.Location
	err error
}

func (s *stubLocator) Locate(ctx context.Context, ip string) (geo.Location, error) {
	return s.loc, s.err
}

func newTestService(t *testing.T) (*Service, *repository.MemoryRepository, *repository.MemoryHistoryRepository) {
	t.Helper()
	links := repository.NewMemoryRepository()
	history := repository.NewMemoryHistoryRepository()
	authSvc := auth.NewService(auth.Config{JWTSecret: "secret", CookieName: "auth_token", CookieTTL: time.Hour}, links)
	svc := NewService(links, history, authSvc, "http://localhost:8080", zap.NewNop())
	return svc, links, history
}

func TestCreateLink_AnonymousDedup(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	// Тест 1: первое анонимное создание
	first, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err, "CreateLink should not return error")
	assert.False(t, first.CreatedBefore)
	assert.Len(t, first.Slug, 6, "Generated slug should be 6 characters long")

	// Тест 2: повторное анонимное создание возвращает тот же слаг без записи
	second, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.True(t, second.CreatedBefore, "Second anonymous creation should report created_before")
	assert.Equal(t, first.Slug, second.Slug)

	count, err := links.Count()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count, "Dedup hit should not write a new record")
}

func TestCreateLink_OwnedNeverDedups(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateLink(ctx, "https://example.com/a", 7)
	assert.NoError(t, err)
	second, err := svc.CreateLink(ctx, "https://example.com/a", 7)
	assert.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug, "Owned creations should always produce distinct slugs")
	assert.False(t, second.CreatedBefore)

	// Ссылки владельца приватны и не участвуют в анонимной дедупликации
	link, err := links.Get(first.Slug)
	assert.NoError(t, err)
	assert.True(t, link.IsPrivate)

	anon, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.False(t, anon.CreatedBefore, "Private links must not shadow anonymous creation")
}

func TestCreateLink_CollisionRetry(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, links.Save(models.Link{Slug: "AAAAAA", LongURL: "https://taken.com"}))

	// Тест 1: две коллизии подряд, третья попытка успешна
	draws := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	var calls int
	svc.generateSlug = func() (string, error) {
		s := draws[calls]
		calls++
		return s, nil
	}

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.Equal(t, "BBBBBB", result.Slug)
	assert.Equal(t, 3, calls, "Each attempt should use an independent draw")

	// Тест 2: пять коллизий подряд исчерпывают попытки
	calls = 0
	svc.generateSlug = func() (string, error) {
		calls++
		return "AAAAAA", nil
	}

	_, err = svc.CreateLink(ctx, "https://example.com/b", auth.AnonymousUserID)
	assert.ErrorIs(t, err, ErrSlugExhausted, "Five consecutive collisions should exhaust retries")
	assert.Equal(t, 5, calls, "Retry loop should stop after five attempts")
}

func TestCreateLink_ContextCancelled(t *testing.T) {
	svc, _, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	svc.generateSlug = func() (string, error) {
		calls++
		return "AAAAAA", nil
	}

	_, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls, "Cancelled context should stop generation")
}

func TestCreateLink_EmptyURL(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateLink(context.Background(), "", auth.AnonymousUserID)
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestResolveLink(t *testing.T) {
	svc, links, history := newTestService(t)
	ctx := context.Background()

	result, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err)

	// Тест 1: разрешение возвращает URL и увеличивает счётчик с 0 до 1
	longURL, err := svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/a", longURL)

	link, err := links.Get(result.Slug)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), link.HopCounts)

	// Тест 2: анонимные переходы не журналируются
	events, err := history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Тест 3: авторизованный переход журналируется с заглушками геоданных
	_, err = svc.ResolveLink(ctx, result.Slug, "", "user:7", "")
	assert.NoError(t, err)

	events, err = history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "user:7", events[0].CreatedBy)
	assert.Equal(t, geo.Unknown, events[0].LocationCity)
	assert.Equal(t, geo.Unknown, events[0].LocationCountry)

	// Тест 4: отсутствующий слаг
	_, err = svc.ResolveLink(ctx, "missing", "", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestResolveLink_Geolocation(t *testing.T) {
	svc, _, history := newTestService(t)
	ctx := context.Background()

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	// Тест 1: успешная геолокация попадает в событие
	svc.WithLocator(&stubLocator{loc: geo.Location{City: "Moscow", Country: "Russia"}})
	_, err = svc.ResolveLink(ctx, result.Slug, "", "user:7", "8.8.8.8")
	assert.NoError(t, err)

	events, err := history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "Moscow", events[0].LocationCity)
	assert.Equal(t, "Russia", events[0].LocationCountry)

	// Тест 2: сбой геолокации деградирует в заглушки и не мешает разрешению
	svc.WithLocator(&stubLocator{err: geo.ErrNoLocationData})
	_, err = svc.ResolveLink(ctx, result.Slug, "", "user:7", "8.8.8.8")
	assert.NoError(t, err)

	events, err = history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, geo.Unknown, events[1].LocationCity)
}

func TestResolveLink_HistoryFailureIsBestEffort(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	svc.history = &failingHistory{MemoryHistoryRepository: repository.NewMemoryHistoryRepository(), failAppend: true}

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	longURL, err := svc.ResolveLink(ctx, result.Slug, "", "user:7", "")
	assert.NoError(t, err, "History append failure must not fail the resolution")
	assert.Equal(t, "https://example.com", longURL)

	link, err := links.Get(result.Slug)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), link.HopCounts)
}

func TestSetExpiration(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	// Тест 1: время в прошлом относительно "сейчас" отклоняется без записи
	err = svc.SetExpiration(result.Slug, "2026-06-01 14:00", "Europe/Moscow")
	assert.ErrorIs(t, err, ErrExpirationInPast, "2026-06-01 14:00 MSK is 11:00 UTC, already in the past")

	// Тест 2: будущее время принимается, граница истечения строгая
	err = svc.SetExpiration(result.Slug, "2026-06-01 15:01", "Europe/Moscow")
	assert.NoError(t, err)

	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.NoError(t, err, "One minute before expiration the link should resolve")

	svc.now = func() time.Time { return base.Add(time.Minute) }
	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkExpired, "At the expiration instant the link is already expired")

	// Тест 3: некорректный часовой пояс — ошибка валидации
	err = svc.SetExpiration(result.Slug, "2026-06-01 15:01", "Mars/Olympus")
	assert.Error(t, err)

	// Тест 4: отсутствующий слаг
	err = svc.SetExpiration("missing", "2026-06-01 15:01", "Europe/Moscow")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestRemoveExpiration(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	assert.NoError(t, svc.SetExpiration(result.Slug, "2026-06-01 12:05", "UTC"))

	// Тест 1: после снятия срока ссылка снова бессрочная
	assert.NoError(t, svc.RemoveExpiration(result.Slug))

	svc.now = func() time.Time { return base.Add(1000 * time.Hour) }
	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.NoError(t, err, "After RemoveExpiration the link should resolve unconditionally")

	// Тест 2: повторное снятие безопасно
	assert.NoError(t, svc.RemoveExpiration(result.Slug))

	// Тест 3: отсутствующий слаг
	assert.ErrorIs(t, svc.RemoveExpiration("missing"), repository.ErrLinkNotFound)
}

func TestCustomizeSlug(t *testing.T) {
	svc, links, history := newTestService(t)
	ctx := context.Background()

	result, err := svc.CreateLink(ctx, "https://example.com", 7)
	assert.NoError(t, err)

	_, err = svc.ResolveLink(ctx, result.Slug, "", "user:7", "")
	assert.NoError(t, err)

	// Тест 1: недопустимые символы
	err = svc.CustomizeSlug(result.Slug, "bad slug!", 7)
	assert.ErrorIs(t, err, ErrInvalidSlugFormat)

	// Тест 2: чужой пользователь
	err = svc.CustomizeSlug(result.Slug, "my-link", 8)
	assert.ErrorIs(t, err, ErrForbidden)

	// Тест 3: успешная замена — переименование, старый слаг удаляется
	err = svc.CustomizeSlug(result.Slug, "my-link", 7)
	assert.NoError(t, err)

	longURL, err := svc.ResolveLink(ctx, "my-link", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com", longURL)

	_, err = links.Get(result.Slug)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound, "Old slug should be deleted after rekey")

	// Тест 4: история переходов следует за ссылкой
	events, err := svc.ListRedirectHistory("my-link", "")
	assert.NoError(t, err, "History should be reachable under the new slug")
	assert.Len(t, events, 1)
	assert.Equal(t, "user:7", events[0].CreatedBy)

	stale, err := history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Empty(t, stale, "Rename must not leave history under the dead slug")

	// Тест 5: занятый новый слаг
	other, err := svc.CreateLink(ctx, "https://other.com", 7)
	assert.NoError(t, err)
	err = svc.CustomizeSlug(other.Slug, "my-link", 7)
	assert.ErrorIs(t, err, repository.ErrSlugExists)

	// Тест 6: отсутствующий исходный слаг
	err = svc.CustomizeSlug("missing", "fresh-link", 7)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestCustomizeSlug_HistoryFailure(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	svc.history = &failingHistory{MemoryHistoryRepository: repository.NewMemoryHistoryRepository(), failRekey: true}

	result, err := svc.CreateLink(ctx, "https://example.com", 7)
	assert.NoError(t, err)

	err = svc.CustomizeSlug(result.Slug, "my-link", 7)
	assert.ErrorIs(t, err, ErrDeleteIncomplete, "History move failure after rename is not a success")

	// Сама ссылка уже переименована
	_, err = links.Get("my-link")
	assert.NoError(t, err)
	_, err = links.Get(result.Slug)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestPasswordLifecycle(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.CreateLink(ctx, "https://example.com", 7)
	assert.NoError(t, err)

	// Тест 1: чужой пользователь не может установить пароль
	assert.ErrorIs(t, svc.SetPassword(result.Slug, 8, "s3cret"), ErrForbidden)

	// Тест 2: после установки пароль обязателен
	assert.NoError(t, svc.SetPassword(result.Slug, 7, "s3cret"))

	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkProtected)

	_, err = svc.ResolveLink(ctx, result.Slug, "wrong", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkProtected)

	longURL, err := svc.ResolveLink(ctx, result.Slug, "s3cret", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com", longURL)

	// Тест 3: снятие пароля открывает доступ, приватность остаётся
	assert.NoError(t, svc.RemovePassword(result.Slug, 7))

	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.NoError(t, err)

	link, err := links.Get(result.Slug)
	assert.NoError(t, err)
	assert.True(t, link.IsPrivate, "Clearing the password should not revert privacy")
}

func TestDeleteLink(t *testing.T) {
	svc, _, history := newTestService(t)
	ctx := context.Background()

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	_, err = svc.ResolveLink(ctx, result.Slug, "", "user:7", "")
	assert.NoError(t, err)

	// Тест 1: чужой пользователь не может удалить ссылку
	assert.ErrorIs(t, svc.DeleteLink(result.Slug, 8), ErrForbidden)

	// Тест 2: каскадное удаление записи и истории
	assert.NoError(t, svc.DeleteLink(result.Slug, auth.AnonymousUserID))

	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	_, err = svc.ListRedirectHistory(result.Slug, "")
	assert.ErrorIs(t, err, ErrNoHistory)

	events, err := history.ListBySlug(result.Slug)
	assert.NoError(t, err)
	assert.Empty(t, events, "Deletion must not leave stale history")

	// Тест 3: повторное удаление
	assert.ErrorIs(t, svc.DeleteLink(result.Slug, auth.AnonymousUserID), repository.ErrLinkNotFound)
}

func TestDeleteLink_HistoryFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.history = &failingHistory{MemoryHistoryRepository: repository.NewMemoryHistoryRepository(), failDelete: true}

	result, err := svc.CreateLink(ctx, "https://example.com", auth.AnonymousUserID)
	assert.NoError(t, err)

	err = svc.DeleteLink(result.Slug, auth.AnonymousUserID)
	assert.ErrorIs(t, err, ErrDeleteIncomplete, "History cleanup failure after record deletion is not a success")

	_, err = svc.ResolveLink(ctx, result.Slug, "", "", "")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound, "Link record is gone even though cleanup failed")
}

func TestListRedirectHistory(t *testing.T) {
	svc, _, history := newTestService(t)

	// Тест 1: пустая история — отдельное состояние
	_, err := svc.ListRedirectHistory("never-visited", "")
	assert.ErrorIs(t, err, ErrNoHistory)

	// Тест 2: конвертация времени в часовой пояс пользователя
	assert.NoError(t, history.Append(models.RedirectEvent{
		Slug:            "abc123",
		LongURL:         "https://example.com",
		CreatedBy:       "user:7",
		LocationCity:    "n/a",
		LocationCountry: "n/a",
		Time:            "2026-06-01 12:00:00",
	}))

	events, err := svc.ListRedirectHistory("abc123", "Europe/Moscow")
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "2026-06-01 15:00:00", events[0].Time)

	// Тест 3: без часового пояса время остаётся в UTC
	events, err = svc.ListRedirectHistory("abc123", "")
	assert.NoError(t, err)
	assert.Equal(t, "2026-06-01 12:00:00", events[0].Time)
}

func TestListUserLinks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	first, err := svc.CreateLink(ctx, "https://example.com/1", 7)
	assert.NoError(t, err)
	_, err = svc.CreateLink(ctx, "https://example.com/2", 7)
	assert.NoError(t, err)
	_, err = svc.CreateLink(ctx, "https://example.com/3", 8)
	assert.NoError(t, err)

	assert.NoError(t, svc.SetExpiration(first.Slug, "2026-06-02 12:00", "UTC"))
	assert.NoError(t, svc.SetPassword(first.Slug, 7, "s3cret"))

	links, err := svc.ListUserLinks(7, "Europe/Moscow")
	assert.NoError(t, err)
	assert.Len(t, links, 2)

	byShort := make(map[string]models.LinkResponse)
	for _, l := range links {
		byShort[l.Slug] = l
		assert.Equal(t, "http://localhost:8080/"+l.Slug, l.ShortURL)
	}
	assert.Equal(t, "2026-06-02 15:00:00", byShort[first.Slug].ExpirationDate)
	assert.True(t, byShort[first.Slug].IsProtected)
}

func TestStats(t *testing.T) {
	svc, _, history := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateLink(ctx, "https://example.com/1", auth.AnonymousUserID)
	assert.NoError(t, err)
	_, err = svc.CreateLink(ctx, "https://example.com/2", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.NoError(t, history.Append(models.RedirectEvent{Slug: "abc123", LongURL: "https://example.com", CreatedBy: "user:1", Time: "2026-06-01 12:00:00"}))

	stats, err := svc.Stats()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.Links)
	assert.Equal(t, int64(1), stats.Redirects)
}

func TestScenario_AnonymousRoundTrip(t *testing.T) {
	svc, links, _ := newTestService(t)
	ctx := context.Background()

	// Сценарий: анонимное создание, дедупликация, разрешение со счётчиком 0 → 1
	first, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.False(t, first.CreatedBefore)

	second, err := svc.CreateLink(ctx, "https://example.com/a", auth.AnonymousUserID)
	assert.NoError(t, err)
	assert.True(t, second.CreatedBefore)
	assert.Equal(t, first.Slug, second.Slug)

	link, err := links.Get(first.Slug)
	assert.NoError(t, err)
	assert.Zero(t, link.HopCounts)

	longURL, err := svc.ResolveLink(ctx, first.Slug, "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/a", longURL)

	link, err = links.Get(first.Slug)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), link.HopCounts)
}
