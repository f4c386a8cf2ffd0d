// Package timeutil содержит конвертацию времени между UTC и часовым поясом пользователя.
// Ядро сервиса хранит и сравнивает время только в UTC
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// LayoutSeconds — формат хранения времени событий
const LayoutSeconds = "2006-01-02 15:04:05"

// LayoutMinutes — формат времени во входных данных пользователя
const LayoutMinutes = "2006-01-02 15:04"

// ConvertLocalToUTC разбирает время в часовом поясе пользователя и возвращает момент в UTC
func ConvertLocalToUTC(localStr, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load location %q: %w", timezone, err)
	}
	local, err := time.ParseInLocation(LayoutMinutes, localStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local time %q: %w", localStr, err)
	}
	return local.UTC(), nil
}

// ConvertUTCToLocal переводит строку времени в UTC в часовой пояс пользователя.
// При любой ошибке возвращает исходную строку: отображение — best-effort
func ConvertUTCToLocal(utcStr, timezone string) string {
	value := utcStr
	if i := strings.Index(value, "."); i >= 0 {
		value = value[:i]
	}
	utc, err := time.ParseInLocation(LayoutSeconds, value, time.UTC)
	if err != nil {
		return utcStr
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return utcStr
	}
	return utc.In(loc).Format(LayoutSeconds)
}
