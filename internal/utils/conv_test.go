package utils

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		in string
		id uint
		ok bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseID(tt.in)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)", tt.in, id, ok, tt.id, tt.ok)
		}
	}

	if OptionalID("") != nil {
		t.Error("Expected nil for empty optional id")
	}
	if p := OptionalID("5"); p == nil || *p != 5 {
		t.Errorf("Expected 5, got %v", p)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("Hash must not equal the plaintext")
	}
	if !CheckPasswordHash("admin123", hash) {
		t.Error("Expected matching password to verify")
	}
	if CheckPasswordHash("admin124", hash) {
		t.Error("Expected wrong password to fail")
	}
}
