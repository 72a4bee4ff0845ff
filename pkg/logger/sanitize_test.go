package logger

import "testing"

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		want     bool
	}{
		{name: "empty query", rawQuery: "", want: false},
		{name: "plain filter params", rawQuery: "status=pending&limit=20", want: false},
		{name: "password param", rawQuery: "password=hunter2", want: true},
		{name: "token param", rawQuery: "page=2&token=abc123", want: true},
		{name: "presigned url signature", rawQuery: "X-Amz-Signature=deadbeef", want: true},
		{name: "case insensitive", rawQuery: "API_KEY=secret", want: true},
		{name: "email in inquiry filter", rawQuery: "email=someone%40example.com", want: true},
		{name: "phone in inquiry filter", rawQuery: "phone=555-0100", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeQueryString(tt.rawQuery); got != tt.want {
				t.Errorf("SanitizeQueryString(%q) = %v, want %v", tt.rawQuery, got, tt.want)
			}
		})
	}
}

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "typical address", email: "applicant@example.com", want: "a********@*******.com"},
		{name: "single char local part kept", email: "a@example.com", want: "a@*******.com"},
		{name: "subdomain labels masked", email: "owner@mail.example.org", want: "o****@****.*******.org"},
		{name: "bare domain unmasked", email: "user@localhost", want: "u***@localhost"},
		{name: "missing at sign", email: "not-an-email", want: "[invalid-email]"},
		{name: "empty local part", email: "@example.com", want: "[invalid-email]"},
		{name: "empty domain", email: "user@", want: "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizedEmail(tt.email); got != tt.want {
				t.Errorf("SanitizedEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
