package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://expo2025.fun/%E3%83%91%E3%83%93/",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///", ""}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestValidateProxyURL(t *testing.T) {
	for _, p := range []string{"http://localhost:8080", "socks5://127.0.0.1:1080"} {
		if _, err := ValidateProxyURL(p); err != nil {
			t.Fatalf("expected valid proxy %s, got %v", p, err)
		}
	}
	for _, p := range []string{"localhost:8080", "ftp://proxy", "socks5://"} {
		if _, err := ValidateProxyURL(p); err == nil {
			t.Fatalf("expected invalid proxy %s", p)
		}
	}
}
