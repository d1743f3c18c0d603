package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/school-notify/internal/models"
)

// EvalAll — условия соединены по AND; пустой список истинен.
func EvalAll(conds []models.Condition, ctx map[string]any) (bool, error) {
	for _, c := range conds {
		ok, err := Eval(c, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Eval — один предикат над контекстом. Отсутствующее поле сравнивается
// как пустое значение, а не как ошибка: воркфлоу настраивают руками.
func Eval(c models.Condition, ctx map[string]any) (bool, error) {
	field := ctx[c.Field]
	switch c.Op {
	case models.OpEquals:
		return looseEq(field, c.Value), nil
	case models.OpNotEquals:
		return !looseEq(field, c.Value), nil
	case models.OpGreaterThan:
		a, b, ok := bothNumbers(field, c.Value)
		return ok && a > b, nil
	case models.OpLessThan:
		a, b, ok := bothNumbers(field, c.Value)
		return ok && a < b, nil
	case models.OpContains:
		return strings.Contains(str(field), str(c.Value)), nil
	case models.OpInArray:
		arr, ok := c.Value.([]any)
		if !ok {
			return false, fmt.Errorf("in_array: значение %v не массив", c.Value)
		}
		for _, v := range arr {
			if looseEq(field, v) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("неизвестный оператор %q", c.Op)
}

// looseEq — числа сравниваем как числа, остальное — как строки.
// JSON приносит числа как float64, контекст сессии — как int.
func looseEq(a, b any) bool {
	if fa, fb, ok := bothNumbers(a, b); ok {
		return fa == fb
	}
	return str(a) == str(b)
}

func bothNumbers(a, b any) (float64, float64, bool) {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	return fa, fb, oka && okb
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
