package utils

import "testing"

func TestDetermineLocale_ExplicitWins(t *testing.T) {
	got := DetermineLocale("hi-IN", "en-US,en;q=0.9,es;q=0.8", SupportedLocales, "en")
	if got != "hi" {
		t.Fatalf("want hi, got %s", got)
	}
}

func TestDetermineLocale_LanguageName(t *testing.T) {
	got := DetermineLocale("Tamil", "", SupportedLocales, "en")
	if got != "ta" {
		t.Fatalf("want ta, got %s", got)
	}
}

func TestDetermineLocale_AcceptLanguageOrder(t *testing.T) {
	got := DetermineLocale("", "en-US,en;q=0.9,fr;q=0.8", SupportedLocales, "en")
	if got != "en" {
		t.Fatalf("want en, got %s", got)
	}
}

func TestDetermineLocale_AcceptLanguagePrefersHigherQ(t *testing.T) {
	got := DetermineLocale("", "es;q=0.5,mr;q=0.85", SupportedLocales, "en")
	if got != "mr" {
		t.Fatalf("want mr, got %s", got)
	}
}

func TestDetermineLocale_ZeroQIgnored(t *testing.T) {
	got := DetermineLocale("", "fr;q=0,de", SupportedLocales, "en")
	if got != "en" {
		t.Fatalf("want en fallback, got %s", got)
	}
}

func TestDetermineLocale_DefaultFallback(t *testing.T) {
	got := DetermineLocale("", "de-DE,it;q=0.9", SupportedLocales, "en")
	if got != "en" {
		t.Fatalf("want en fallback, got %s", got)
	}
}
