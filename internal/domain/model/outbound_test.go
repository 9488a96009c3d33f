package model

import "testing"

func TestParseRecipient(t *testing.T) {
	cases := []struct {
		raw  string
		want Recipient
	}{
		{raw: "6899720377", want: Recipient{ChatID: 6899720377}},
		{raw: "-1001234567890", want: Recipient{ChatID: -1001234567890}},
		{raw: "@Scammerawarealert", want: Recipient{Username: "@Scammerawarealert"}},
		{raw: " Scammerawarealert ", want: Recipient{Username: "@Scammerawarealert"}},
	}

	for _, tc := range cases {
		got := ParseRecipient(tc.raw)
		if got != tc.want {
			t.Fatalf("unexpected recipient for %q: %+v", tc.raw, got)
		}
	}

	if !ParseRecipient("").IsZero() {
		t.Fatalf("empty recipient should be zero")
	}
}
