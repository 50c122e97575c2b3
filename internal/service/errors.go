package service

import "errors"

var (
	// ErrInvalidRequest заявка не прошла входную валидацию
	ErrInvalidRequest = errors.New("invalid payment session request")
	// ErrUnknownShelter приют не найден в каталоге
	ErrUnknownShelter = errors.New("unknown shelter")
	// ErrInvalidStatus недопустимое значение статуса заявки
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrUnresolvedWebhook callback не сопоставлен ни с одной заявкой
	ErrUnresolvedWebhook = errors.New("no booking matches the callback")
)
