package currency

import (
	"errors"
	"testing"
)

// TestParseToCents 金额字符串按固定两位小数精度解析为分，不经过浮点。
func TestParseToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"60.00", 6000},
		{"0.01", 1},
		{"1.1", 110},
		{"1.100", 110},
		{"100", 10000},
		{"-5.00", -500}, // 符号由调用方的业务校验拒绝，这里只管换算
	}
	for _, tc := range cases {
		got, err := ParseToCents(tc.in)
		if err != nil {
			t.Fatalf("ParseToCents(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseToCents(%q)=%d want=%d", tc.in, got, tc.want)
		}
	}
}

func TestParseToCentsRejects(t *testing.T) {
	if _, err := ParseToCents("0.001"); !errors.Is(err, ErrTooPrecise) {
		t.Fatalf("want ErrTooPrecise, got %v", err)
	}
	if _, err := ParseToCents("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := ParseToCents(""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{6000, "60.00"},
		{1, "0.01"},
		{0, "0.00"},
		{-500, "-5.00"},
		{123456, "1234.56"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.want {
			t.Fatalf("FormatCents(%d)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

// TestRoundTrip 解析-格式化往返无损。
func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "40.00", "1234.56"} {
		cents, err := ParseToCents(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatCents(cents); got != s {
			t.Fatalf("roundtrip %q -> %q", s, got)
		}
	}
}
