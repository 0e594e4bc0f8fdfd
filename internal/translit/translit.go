// Package translit converts Chinese academic title idioms ("第二十一讲",
// "作业三甲", "期中考试一") into canonical English labels using pure string
// pattern matching. It performs no I/O; titles outside the grammar pass
// through unchanged.
package translit

import (
	"fmt"
	"strings"
)

// englishKind maps a stored kind to its canonical English noun.
func englishKind(kind string) string {
	switch kind {
	case "Lecture", "Discussion", "Lab", "Homework", "Quiz", "Midterm", "Final", "Project":
		return kind
	default:
		return "Other"
	}
}

// chineseNumToInt converts a Chinese numeral token to an integer. It handles
// 零=0, 一=1 .. 九=9, 十=10, 十N, N十, N十M and a leading hundreds digit
// (D百 + tens/units). The boolean reports whether the token parsed; zero is a
// valid numeral and must not be conflated with "no match".
func chineseNumToInt(s string) (int, bool) {
	chars := []rune(s)
	if len(chars) == 0 {
		return 0, false
	}

	digit := func(c rune) (int, bool) {
		switch c {
		case '零':
			return 0, true
		case '一':
			return 1, true
		case '二':
			return 2, true
		case '三':
			return 3, true
		case '四':
			return 4, true
		case '五':
			return 5, true
		case '六':
			return 6, true
		case '七':
			return 7, true
		case '八':
			return 8, true
		case '九':
			return 9, true
		default:
			return 0, false
		}
	}

	if len(chars) == 1 {
		if chars[0] == '十' {
			return 10, true
		}
		return digit(chars[0])
	}

	result := 0
	i := 0

	// Hundreds: D百 followed by the usual tens/units parsing.
	if chars[1] == '百' {
		if d, ok := digit(chars[0]); ok {
			result += d * 100
			i = 2
		}
	}

	// Tens.
	if i < len(chars) {
		if chars[i] == '十' {
			// 十X = 10+X
			result += 10
			i++
		} else if i+1 < len(chars) && chars[i+1] == '十' {
			// N十 or N十X
			if d, ok := digit(chars[i]); ok {
				result += d * 10
				i += 2
			}
		} else if result == 0 {
			return digit(chars[i])
		}
	}

	// Units.
	if i < len(chars) {
		if d, ok := digit(chars[i]); ok {
			result += d
		}
	}

	if result > 0 || s == "零" {
		return result, true
	}
	return 0, false
}

// sectionLetter maps the section markers 甲/乙/丙 to A/B/C.
func sectionLetter(c rune) (rune, bool) {
	switch c {
	case '甲':
		return 'A', true
	case '乙':
		return 'B', true
	case '丙':
		return 'C', true
	default:
		return 0, false
	}
}

// kindPrefixes are tried in order after the ordinal and exam patterns.
var kindPrefixes = []struct {
	prefix  string
	english string
}{
	{"作业", "Homework"},
	{"测验", "Quiz"},
	{"实验", "Lab"},
	{"讨论", "Discussion"},
	{"讲座", "Lecture"},
	{"项目", "Project"},
}

// Transliterate converts a (kind, title) pair to a canonical English label
// like "Lecture 21", "Homework 3A" or "Midterm". If no pattern matches, the
// title is returned verbatim.
func Transliterate(kind, title string) string {
	enKind := englishKind(kind)

	// 第N讲 / 第N次
	if rest, ok := strings.CutPrefix(title, "第"); ok {
		if numStr, ok := strings.CutSuffix(rest, "讲"); ok {
			if n, ok := chineseNumToInt(numStr); ok {
				return fmt.Sprintf("%s %d", enKind, n)
			}
		}
		if numStr, ok := strings.CutSuffix(rest, "次"); ok {
			if n, ok := chineseNumToInt(numStr); ok {
				return fmt.Sprintf("%s %d", enKind, n)
			}
		}
	}

	// 期中考试[N] / 期末考试[N]
	if rest, ok := strings.CutPrefix(title, "期中考试"); ok {
		if rest == "" {
			return "Midterm"
		}
		if n, ok := chineseNumToInt(rest); ok {
			return fmt.Sprintf("Midterm %d", n)
		}
	}
	if rest, ok := strings.CutPrefix(title, "期末考试"); ok {
		if rest == "" {
			return "Final"
		}
		if n, ok := chineseNumToInt(rest); ok {
			return fmt.Sprintf("Final %d", n)
		}
	}

	// Kind-name prefixes: 作业X, 测验X, 实验X, 讨论X, 讲座X, 项目X with an
	// optional trailing section letter.
	for _, kp := range kindPrefixes {
		rest, ok := strings.CutPrefix(title, kp.prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return kp.english
		}

		runes := []rune(rest)
		if letter, ok := sectionLetter(runes[len(runes)-1]); ok {
			if n, ok := chineseNumToInt(string(runes[:len(runes)-1])); ok {
				return fmt.Sprintf("%s %d%c", kp.english, n, letter)
			}
			continue
		}
		if n, ok := chineseNumToInt(rest); ok {
			return fmt.Sprintf("%s %d", kp.english, n)
		}
	}

	// No rule matched: pass the title through untouched.
	return title
}
