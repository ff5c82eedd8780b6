package telegram

import (
	"strings"
	"unicode/utf8"
)

// Telegram режет сообщения длиннее 4096 символов; оставляем запас.
const maxMessageLen = 4000

const (
	startText = "Assalomu alaykum! Men LinearSolve AI - chiziqli algebra yordamchisiman.\n" +
		"Masala matnini yozing yoki rasmini yuboring, men uni qadamma-qadam yechib beraman.\n" +
		"Buyruqlar: /clear - tozalash, /pdf - oxirgi yechimni PDF qilib olish."
	helpText           = "Masala matnini yoki rasmini yuboring."
	solvingText        = "Yechilmoqda..."
	busyText           = "Oldingi masala hali yechilmoqda, biroz kuting."
	clearedText        = "Tozalandi."
	unknownCommandText = "Noma'lum buyruq."
)

// SplitMessage режет s на куски не длиннее limit байт, по возможности по переводу строки,
// не разрывая UTF-8 последовательности.
func SplitMessage(s string, limit int) []string {
	if s == "" {
		return nil
	}
	if limit <= 0 || len(s) <= limit {
		return []string{s}
	}
	var out []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		} else {
			cut++ // перевод строки остаётся в первой части
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
