package ttsnorm

import "testing"

func TestNormalizePhoneNumber(t *testing.T) {
	got := Normalize("Call me at 415-555-1234")
	want := "Call me at four one five, five five five, one two three four"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeCurrencyWithCents(t *testing.T) {
	got := Normalize("That will be $19.99")
	want := "That will be nineteen dollars and ninety nine cents"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeCurrencyWholeDollars(t *testing.T) {
	got := Normalize("It costs $50")
	want := "It costs fifty dollars"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeRange(t *testing.T) {
	got := Normalize("open 9-5 daily")
	want := "open nine to five daily"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizePercent(t *testing.T) {
	got := Normalize("a 20% discount")
	want := "a twenty percent discount"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeTimeOnTheHour(t *testing.T) {
	got := Normalize("meet at 3:00 pm")
	want := "meet at three o'clock p.m."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeTimeWithMinutes(t *testing.T) {
	got := Normalize("the bus leaves at 4:15am")
	want := "the bus leaves at four fifteen a.m."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeAbbreviations(t *testing.T) {
	got := Normalize("Dr. Smith lives on Main St. etc.")
	want := "Doctor Smith lives on Main Street et cetera"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := Normalize("reach us at support@example.com 24/7")
	want := "reach us at support at example.com twenty-four seven"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("too   many    spaces")
	want := "too many spaces"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeEmptyString(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestNormalizeCreditCard(t *testing.T) {
	got := Normalize("card 4111 1111 1111 1111 on file")
	want := "card four one one one, one one one one, one one one one, one one one one on file"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
