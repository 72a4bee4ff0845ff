package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{
			name:       "valid strong password",
			password:   "L0tboard!Pass",
			shouldFail: false,
		},
		{
			name:       "too short",
			password:   "Lp@1",
			shouldFail: true,
		},
		{
			name:       "missing uppercase",
			password:   "lotboard@123",
			shouldFail: true,
		},
		{
			name:       "missing lowercase",
			password:   "LOTBOARD@123",
			shouldFail: true,
		},
		{
			name:       "missing digit",
			password:   "Lotboard@xyz",
			shouldFail: true,
		},
		{
			name:       "missing special character",
			password:   "Lotboard123",
			shouldFail: true,
		},
		{
			name:       "common password rejected",
			password:   "password123",
			shouldFail: true,
		},
		{
			name:       "too long",
			password:   "Aa1!" + strings.Repeat("x", 130),
			shouldFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail && err == nil {
				t.Errorf("expected validation to fail for %q", tt.password)
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected validation to pass for %q, got: %v", tt.password, err)
			}
		})
	}
}

func TestValidatePasswordGenericError(t *testing.T) {
	err := ValidatePassword("weak")
	if err == nil {
		t.Fatal("expected error for weak password")
	}
	// The error message must never leak which requirement failed
	if err.Error() != "invalid password" {
		t.Errorf("expected generic error message, got: %q", err.Error())
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "L0tboard!Pass"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == password {
		t.Error("hash must not equal plaintext")
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Errorf("ComparePassword failed for correct password: %v", err)
	}
	if err := ComparePassword(hash, "WrongPass1!"); err == nil {
		t.Error("ComparePassword succeeded for wrong password")
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
