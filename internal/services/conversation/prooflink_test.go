package conversation

import "testing"

func TestNormalizeProofLink(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "https verbatim", input: "https://x.com/a", want: "https://x.com/a", ok: true},
		{name: "http verbatim", input: "http://example.org/Proof?id=1", want: "http://example.org/Proof?id=1", ok: true},
		{name: "scheme case insensitive", input: "HTTPS://Example.com/Path", want: "HTTPS://Example.com/Path", ok: true},
		{name: "t.me prefix", input: "t.me/chan", want: "https://t.me/chan", ok: true},
		{name: "t.me prefix keeps path case", input: "T.me/ProofChan", want: "https://t.me/ProofChan", ok: true},
		{name: "t.me embedded", input: "proofs here: t.me/MyProofs/12 thanks", want: "https://t.me/MyProofs/12", ok: true},
		{name: "t.me embedded without tail", input: "see t.me/ please", ok: false},
		{name: "at name", input: "@chan", want: "https://t.me/chan", ok: true},
		{name: "surrounding spaces", input: "  @proofchan \n", want: "https://t.me/proofchan", ok: true},
		{name: "bare at", input: "@", ok: false},
		{name: "at with spaces", input: "@my chan", ok: false},
		{name: "plain words", input: "hello world", ok: false},
		{name: "empty", input: "   ", ok: false},
		{name: "t.me alone", input: "t.me/", ok: false},
		{name: "bare https scheme", input: "https://", ok: false},
		{name: "bare http scheme", input: "http://", ok: false},
		{name: "scheme with path but no host", input: "https:///proofs", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeProofLink(tt.input)
			if ok != tt.ok {
				t.Fatalf("unexpected ok for %q: got %v want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("unexpected link for %q: got %q want %q", tt.input, got, tt.want)
			}
		})
	}
}
