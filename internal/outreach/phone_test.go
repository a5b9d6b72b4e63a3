package outreach

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := map[string]struct {
		raw    string
		expect string
	}{
		"local format":          {raw: "0812-3456-7890", expect: "6281234567890"},
		"international":         {raw: "+62 812 3456 7890", expect: "6281234567890"},
		"canonical":             {raw: "6281234567890", expect: "6281234567890"},
		"missing prefix":        {raw: "812 3456 7890", expect: "6281234567890"},
		"parentheses and dots":  {raw: "(0812).3456.7890", expect: "6281234567890"},
		"empty":                 {raw: "", expect: "62"},
		"no digits":             {raw: "n/a", expect: "62"},
		"only leading zero":     {raw: "0", expect: "62"},
		"non ascii digits drop": {raw: "０812", expect: "62812"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := NormalizePhone(tt.raw)
			if got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
			if again := NormalizePhone(got); again != got {
				t.Fatalf("normalisation not idempotent: %s -> %s", got, again)
			}
		})
	}
}

func TestPhoneLooksDialable(t *testing.T) {
	if !PhoneLooksDialable("6281234567890") {
		t.Fatalf("expected mobile number to be dialable")
	}
	if PhoneLooksDialable("62") {
		t.Fatalf("expected bare prefix to be rejected")
	}
	if PhoneLooksDialable("") {
		t.Fatalf("expected empty input to be rejected")
	}
}
