package request

import (
	"reflect"
	"testing"
)

func TestInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{`"42"`, 42, true},
		{" 7 ", 7, true},
		{`" 7 "`, 0, false},
		{"-3", -3, true},
		{"", 0, false},
		{`""`, 0, false},
		{"abc", 0, false},
		{"4.2", 0, false},
	}
	for _, tc := range cases {
		got, ok := Int(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Int(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"quote", []string{"quote"}},
		{"quote,priced", []string{"quote", "priced"}},
		{" quote , priced ", []string{"quote", "priced"}},
		{"quote,,priced,", []string{"quote", "priced"}},
	}
	for _, tc := range cases {
		got := CSV(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("CSV(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
