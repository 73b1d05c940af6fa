// Package slug формирует URL-безопасные идентификаторы из названий
// организаций и тарифных планов.
package slug

import "strings"

// Make приводит название к нижнему регистру и заменяет все символы,
// кроме латинских букв и цифр, на дефисы. Повторные дефисы схлопываются.
func Make(name string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
