package workflow

import (
	"testing"

	"github.com/Spok95/school-notify/internal/models"
)

func TestEvalAll_EmptyIsTrue(t *testing.T) {
	ok, err := EvalAll(nil, map[string]any{"status": "started"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("пустой список условий должен быть истинным")
	}
}

func TestEval_Operators(t *testing.T) {
	ctx := map[string]any{
		"status":           "started",
		"students_present": 17,
		"class_name":       "5А математика",
	}

	cases := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"equals_string", models.Condition{Field: "status", Op: models.OpEquals, Value: "started"}, true},
		{"equals_miss", models.Condition{Field: "status", Op: models.OpEquals, Value: "finished"}, false},
		{"not_equals", models.Condition{Field: "status", Op: models.OpNotEquals, Value: "finished"}, true},
		// JSON приносит числа как float64
		{"equals_numeric_cross_type", models.Condition{Field: "students_present", Op: models.OpEquals, Value: float64(17)}, true},
		{"greater_than", models.Condition{Field: "students_present", Op: models.OpGreaterThan, Value: float64(10)}, true},
		{"greater_than_false", models.Condition{Field: "students_present", Op: models.OpGreaterThan, Value: float64(17)}, false},
		{"less_than", models.Condition{Field: "students_present", Op: models.OpLessThan, Value: "20"}, true},
		{"less_than_non_numeric", models.Condition{Field: "status", Op: models.OpLessThan, Value: float64(5)}, false},
		{"contains", models.Condition{Field: "class_name", Op: models.OpContains, Value: "математика"}, true},
		{"contains_miss", models.Condition{Field: "class_name", Op: models.OpContains, Value: "физика"}, false},
		{"in_array_hit", models.Condition{Field: "status", Op: models.OpInArray, Value: []any{"started", "resumed"}}, true},
		{"in_array_miss", models.Condition{Field: "status", Op: models.OpInArray, Value: []any{"finished"}}, false},
		{"missing_field_as_empty", models.Condition{Field: "no_such", Op: models.OpEquals, Value: ""}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Eval(c.cond, ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Fatalf("ожидали %v, получили %v", c.want, got)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	if _, err := Eval(models.Condition{Field: "x", Op: "between", Value: 1}, nil); err == nil {
		t.Fatal("неизвестный оператор должен вернуть ошибку")
	}
	if _, err := Eval(models.Condition{Field: "x", Op: models.OpInArray, Value: "не массив"}, nil); err == nil {
		t.Fatal("in_array со скаляром должен вернуть ошибку")
	}
}

func TestEvalAll_And(t *testing.T) {
	ctx := map[string]any{"a": 1, "b": 2}
	conds := []models.Condition{
		{Field: "a", Op: models.OpEquals, Value: float64(1)},
		{Field: "b", Op: models.OpEquals, Value: float64(99)},
	}
	ok, err := EvalAll(conds, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("AND: одно ложное условие валит всё выражение")
	}
}
