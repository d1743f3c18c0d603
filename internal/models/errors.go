package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition — нарушение гварда state machine.
// Восстановимая ошибка: вызывающий перечитывает состояние и решает сам.
var ErrInvalidTransition = errors.New("недопустимый переход статуса сессии")

// ErrNotFound — общий "нет такой записи" для слоёв выше db.
var ErrNotFound = errors.New("запись не найдена")

// ValidationError — шаблон содержит неизвестные плейсхолдеры или не
// заполнены обязательные поля. Показывается настраивающему пользователю.
type ValidationError struct {
	Field   string
	Unknown []string // неизвестные переменные шаблона, если дело в них
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Unknown) > 0 {
		return fmt.Sprintf("неизвестные переменные: %s", strings.Join(e.Unknown, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return e.Reason
}
