package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Spok95/school-notify/internal/models"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Extract — все уникальные плейсхолдеры тела в порядке первого вхождения.
func Extract(body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

type ValidationResult struct {
	Valid   bool
	Known   []string
	Unknown []string
}

// Validate — проверка тела против словаря события. Выполняется при
// сохранении шаблона, не при рендере.
func Validate(body string, event models.TriggerEvent) ValidationResult {
	vocab := Vocabulary(event)
	res := ValidationResult{Valid: true}
	for _, name := range Extract(body) {
		if vocab[name] {
			res.Known = append(res.Known, name)
		} else {
			res.Unknown = append(res.Unknown, name)
		}
	}
	if len(res.Unknown) > 0 {
		res.Valid = false
		sort.Strings(res.Unknown)
	}
	return res
}

// Render — подстановка за один проход. Плейсхолдер без значения остаётся
// как есть; подставленное значение дальше не сканируется, фигурные скобки
// внутри значения — литеральный текст.
func Render(body string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		open := strings.IndexByte(body[i:], '{')
		if open < 0 {
			b.WriteString(body[i:])
			break
		}
		open += i
		b.WriteString(body[i:open])
		close := strings.IndexByte(body[open:], '}')
		if close < 0 {
			b.WriteString(body[open:])
			break
		}
		close += open
		name := body[open+1 : close]
		if !placeholderName(name) {
			// не имя — скобка литеральная, настоящий плейсхолдер
			// может начинаться сразу за ней
			b.WriteByte('{')
			i = open + 1
			continue
		}
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(body[open : close+1])
		}
		i = close + 1
	}
	return b.String()
}

func placeholderName(s string) bool {
	return placeholderRe.MatchString("{" + s + "}")
}
