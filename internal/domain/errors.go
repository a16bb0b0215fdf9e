package domain

import "errors"

var (
	// ErrUpstreamUnavailable - сеть или не-2xx ответ маркета; повторяемо
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamMalformed - тело ответа или строка цены не разбираются; повторяемо
	ErrUpstreamMalformed = errors.New("upstream malformed response")
	// ErrNotFound - сущность или цена отсутствует
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDone - работа за сегодня уже выполнена, это не ошибка
	ErrAlreadyDone = errors.New("already done today")
	// ErrMissingReferenceData - нет базовой валюты, игр или опорного предмета
	ErrMissingReferenceData = errors.New("missing reference data")
	// ErrConcurrencyConflict - конфликт на уровне строки в хранилище
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// IsRetryable - ошибка маркета, которую имеет смысл повторить
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrUpstreamMalformed)
}
