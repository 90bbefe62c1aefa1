package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61*time.Minute + 1*time.Second, "01:01:01"},
		{25*time.Hour + 45*time.Minute + 30*time.Second, "25:45:30"},
	}

	for _, test := range tests {
		result := FormatDuration(test.duration)
		if result != test.expected {
			t.Errorf("FormatDuration(%v) = %s; ожидалось %s", test.duration, result, test.expected)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0:00"},
		{9 * time.Second, "0:09"},
		{3*time.Minute + 35*time.Second, "3:35"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, test := range tests {
		if result := FormatClock(test.duration); result != test.expected {
			t.Errorf("FormatClock(%v) = %s; ожидалось %s", test.duration, result, test.expected)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10", 10, "exactly10"},
		{"this is a very long string", 10, "this is..."},
		{"abcd", 3, "abc"},
		{"Привет, мир", 8, "Приве..."},
		{"Ёжик", 4, "Ёжик"},
	}

	for _, test := range tests {
		result := TruncateString(test.input, test.maxLen)
		if result != test.expected {
			t.Errorf("TruncateString(%s, %d) = %s; ожидалось %s", test.input, test.maxLen, result, test.expected)
		}
	}
}
