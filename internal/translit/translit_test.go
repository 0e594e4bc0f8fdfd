package translit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChineseNumToInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"一", 1, true},
		{"九", 9, true},
		{"十", 10, true},
		{"十一", 11, true},
		{"十九", 19, true},
		{"二十", 20, true},
		{"二十一", 21, true},
		{"三十四", 34, true},
		{"九十九", 99, true},
		{"一百", 100, true},
		{"一百二十三", 123, true},
		{"二百一十", 210, true},
		{"零", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"百", 0, false},
	}
	for _, tc := range cases {
		n, ok := chineseNumToInt(tc.in)
		assert.Equal(t, tc.ok, ok, "parse %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, n, "value of %q", tc.in)
		}
	}
}

// numeralFor builds the canonical numeral string for 1..99.
func numeralFor(n int) string {
	digits := []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
	switch {
	case n < 10:
		return digits[n]
	case n == 10:
		return "十"
	case n < 20:
		return "十" + digits[n%10]
	default:
		s := digits[n/10] + "十"
		if n%10 > 0 {
			s += digits[n%10]
		}
		return s
	}
}

func TestChineseNumRoundTrip(t *testing.T) {
	for n := 1; n <= 99; n++ {
		got, ok := chineseNumToInt(numeralFor(n))
		assert.True(t, ok, "numeral for %d", n)
		assert.Equal(t, n, got, "numeral %q", numeralFor(n))
	}
}

func TestTransliterate(t *testing.T) {
	cases := []struct {
		kind, title, want string
	}{
		{"Lecture", "第二十一讲", "Lecture 21"},
		{"Lecture", "第一讲", "Lecture 1"},
		{"Discussion", "第三次", "Discussion 3"},
		{"Homework", "作业二", "Homework 2"},
		{"Quiz", "测验十", "Quiz 10"},
		{"Midterm", "期中考试一", "Midterm 1"},
		{"Midterm", "期中考试", "Midterm"},
		{"Final", "期末考试", "Final"},
		{"Final", "期末考试二", "Final 2"},
		{"Homework", "作业三甲", "Homework 3A"},
		{"Homework", "作业三乙", "Homework 3B"},
		{"Quiz", "测验一丙", "Quiz 1C"},
		{"Lab", "实验四", "Lab 4"},
		{"Project", "项目", "Project"},
		{"Other", "Something else", "Something else"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Transliterate(tc.kind, tc.title), "%s / %s", tc.kind, tc.title)
	}
}

func TestTransliterateFallthrough(t *testing.T) {
	// A matched prefix with an unparseable remainder must return the
	// original title, not a partially built label.
	assert.Equal(t, "作业第一部分", Transliterate("Homework", "作业第一部分"))
	assert.Equal(t, "第许多讲", Transliterate("Lecture", "第许多讲"))
	assert.Equal(t, "期中考试复习", Transliterate("Midterm", "期中考试复习"))
}

func TestTransliterateIdentityLaw(t *testing.T) {
	// Pure and total: unmatched titles come back verbatim for any kind.
	titles := []string{"", "review session", "复习课", "Week 1 notes"}
	for _, kind := range []string{"Lecture", "Homework", "Unknown", ""} {
		for _, title := range titles {
			assert.Equal(t, title, Transliterate(kind, title))
		}
	}
}

func TestTransliterateUnknownKindMapsToOther(t *testing.T) {
	assert.Equal(t, "Other 2", Transliterate("Seminar", "第二讲"))
}

func ExampleTransliterate() {
	fmt.Println(Transliterate("Lecture", "第二十一讲"))
	// Output: Lecture 21
}
