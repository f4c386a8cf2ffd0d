// Package slug содержит генератор случайных слагов и валидацию пользовательских слагов
package slug

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Length — длина генерируемого слага
const Length = 6

// MaxLength — максимальная длина слага в хранилище
const MaxLength = 100

// alphabet — алфавит генератора: латинские буквы и цифры, 62 символа
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// cyrillic — дополнительные буквы, разрешённые в пользовательских слагах
const cyrillic = "абвгдеёжзийклмнопрстуфхцчшщъыьэюяАБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ"

// Generate возвращает случайный слаг фиксированной длины.
// Каждый символ выбирается равномерно из алфавита через криптографический
// источник случайности, каждый вызов — независимая выборка.
func Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// ValidateCustom проверяет пользовательский слаг: допустимы латинские и
// русские буквы, цифры, символы «-» и «_»
func ValidateCustom(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		case strings.ContainsRune(cyrillic, r):
		default:
			return false
		}
	}
	return true
}
