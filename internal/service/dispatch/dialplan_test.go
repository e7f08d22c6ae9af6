package dispatch

import "testing"

func TestNormalizeDestination(t *testing.T) {
	cases := []struct {
		phone       string
		countryCode string
		want        string
	}{
		{"5551234567", "+1", "+15551234567"},
		{"(555) 123-4567", "+1", "+15551234567"},
		{"+1 555 123 4567", "+1", "+15551234567"},
		{"15551234567", "+1", "+15551234567"},
		{"5551234567", "", "+15551234567"},
		{"5551234567", "44", "+445551234567"},
		{"07911123456", "+44", "+447911123456"},
	}

	for _, tc := range cases {
		got := NormalizeDestination(tc.phone, tc.countryCode)
		if got != tc.want {
			t.Errorf("NormalizeDestination(%q, %q) = %q, want %q", tc.phone, tc.countryCode, got, tc.want)
		}
	}
}

func TestNormalizeDestinationRejectsNonDialable(t *testing.T) {
	for _, phone := range []string{"", "   ", "not a number", "+-()"} {
		if got := NormalizeDestination(phone, "+1"); got != "" {
			t.Errorf("NormalizeDestination(%q) = %q, want empty", phone, got)
		}
	}
}
