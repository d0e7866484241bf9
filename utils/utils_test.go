package utils

import (
	"crypto/sha256"
	"testing"
)

func TestContainsString(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !ContainsString(slice, "b") {
		t.Error("expected slice to contain b")
	}
	if ContainsString(slice, "d") {
		t.Error("expected slice not to contain d")
	}
	if ContainsString(nil, "a") {
		t.Error("nil slice contains nothing")
	}
}

func TestSameStringSet(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want bool
	}{
		{"equal same order", []string{"1", "2"}, []string{"1", "2"}, true},
		{"equal different order", []string{"2", "1"}, []string{"1", "2"}, true},
		{"subset", []string{"1"}, []string{"1", "2"}, false},
		{"superset", []string{"1", "2", "3"}, []string{"1", "2"}, false},
		{"duplicates differ", []string{"1", "1"}, []string{"1"}, false},
		{"both empty", nil, []string{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SameStringSet(tc.a, tc.b); got != tc.want {
				t.Errorf("SameStringSet(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestBytesToIntDeterministic(t *testing.T) {
	sum := sha256.Sum256([]byte("attempt-id"))
	first := BytesToInt(sum[:])
	second := BytesToInt(sum[:])
	if first != second {
		t.Errorf("same input produced different seeds: %d vs %d", first, second)
	}

	other := sha256.Sum256([]byte("other-attempt"))
	if BytesToInt(other[:]) == first {
		t.Error("different inputs produced the same seed")
	}
}
