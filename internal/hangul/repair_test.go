package hangul

import "testing"

// corruptViaLatin1 reproduces the common upstream bug where a server sends
// UTF-8 bytes but the consumer decodes them as Latin-1.
func corruptViaLatin1(s string) string {
	out := make([]rune, 0, len(s))
	for _, b := range []byte(s) {
		out = append(out, rune(b))
	}
	return string(out)
}

func TestRepairLatin1RoundTrip(t *testing.T) {
	testCases := []string{
		"지원사업 공고.hwp",
		"사업계획서.pdf",
		"첨부파일 안내",
	}

	for _, want := range testCases {
		t.Run(want, func(t *testing.T) {
			corrupted := corruptViaLatin1(want)
			if corrupted == want {
				t.Fatalf("corruption helper produced identical string for %q", want)
			}
			if got := NewEngine(nil).Repair(corrupted); got != want {
				t.Errorf("Repair(%q) = %q, want %q", corrupted, got, want)
			}
		})
	}
}

func TestRepairEUCKRReencode(t *testing.T) {
	// UTF-8 bytes of the original were decoded under EUC-KR, yielding the
	// classic hanja-flavored mojibake.
	testCases := []struct {
		corrupted string
		want      string
	}{
		{corrupted: "怨듦퀬.hwp", want: "공고.hwp"},
		{corrupted: "以묒냼湲곗뾽", want: "중소기업"},
		// The decoder maps the first byte pair to the compatibility
		// ideograph U+F9E1, which renders identically to U+674E but is
		// the only form that re-encodes to the original bytes.
		{corrupted: "\uf9e1쎌뾽 臾몄꽌", want: "창업 문서"},
	}

	e := NewEngine(nil)
	for _, tc := range testCases {
		t.Run(tc.corrupted, func(t *testing.T) {
			if got := e.Repair(tc.corrupted); got != tc.want {
				t.Errorf("Repair(%q) = %q, want %q", tc.corrupted, got, tc.want)
			}
		})
	}
}

func TestRepairChainedLatin1Stage(t *testing.T) {
	// Double round-trip: UTF-8 -> Latin-1 -> UTF-8 -> EUC-KR.
	testCases := []struct {
		corrupted string
		want      string
	}{
		{corrupted: "챗쨀쨉챗쨀혻", want: "공고"},
		{corrupted: "챘짧짢챙짠혩챗쨀쨉챗쨀혻", want: "모집공고"},
	}

	e := NewEngine(nil)
	for _, tc := range testCases {
		t.Run(tc.corrupted, func(t *testing.T) {
			if got := e.Repair(tc.corrupted); got != tc.want {
				t.Errorf("Repair(%q) = %q, want %q", tc.corrupted, got, tc.want)
			}
		})
	}
}

func TestRepairRawEUCKRBytes(t *testing.T) {
	// EUC-KR bytes displayed as Latin-1 code points.
	e := NewEngine(nil)
	if got := e.Repair("°ø°í.hwp"); got != "공고.hwp" {
		t.Errorf("Repair(%q) = %q, want %q", "°ø°í.hwp", got, "공고.hwp")
	}
}

func TestRepairLenientReencodeSubstitutesUnencodable(t *testing.T) {
	// Mojibake contaminated by a rune outside the EUC-KR repertoire: the
	// strict re-encode refuses the whole string, the lenient pass swaps
	// the stray rune for the ASCII substitute and recovers the rest.
	in := "怨듦퀬\U0001F525"
	if _, ok := eucKRReencodeStrict(in); ok {
		t.Fatal("strict re-encode should refuse a rune outside the repertoire")
	}
	want := "공고\x1a"
	if got := NewEngine(nil).Repair(in); got != want {
		t.Errorf("Repair(%q) = %q, want %q", in, got, want)
	}
}

func TestRepairVerbatimEUCKRBytes(t *testing.T) {
	// Raw EUC-KR bytes carried unconverted inside a Go string, as seen in
	// Content-Disposition filenames from legacy servers.
	raw := string([]byte{0xBB, 0xE7, 0xBE, 0xF7, 0xB0, 0xF8, 0xB0, 0xED}) + ".hwp"
	if got := NewEngine(nil).Repair(raw); got != "사업공고.hwp" {
		t.Errorf("Repair(raw euc-kr bytes) = %q, want %q", got, "사업공고.hwp")
	}
}

func TestRepairLeavesCleanInputUnchanged(t *testing.T) {
	testCases := []string{
		"report_final.pdf",
		"사업계획서.hwp",
		"2024년도 창업지원 공고문.pdf",
		"",
	}

	e := NewEngine(nil)
	for _, s := range testCases {
		if got := e.Repair(s); got != s {
			t.Errorf("Repair(%q) = %q, want input unchanged", s, got)
		}
	}
}

func TestRepairNeverDiscardsUnrecoverableInput(t *testing.T) {
	// Corrupted beyond recovery: flagged by the detector, but no strategy
	// yields a plausible Korean string. The input must come back as-is.
	in := "�����"
	if got := NewEngine(nil).Repair(in); got != in {
		t.Errorf("Repair(%q) = %q, want input unchanged", in, got)
	}
}

func TestStrategyOrderShortCircuits(t *testing.T) {
	// The chained corruption is also "repairable" by strategy 2, but that
	// path yields Latin-1 mojibake with no Hangul syllable, so the engine
	// must fall through to the chained strategy.
	got, ok := eucKRReencodeStrict("챗쨀쨉챗쨀혻")
	if !ok {
		t.Fatal("strategy 2 should apply to chained mojibake")
	}
	if HasHangulSyllable(got) {
		t.Fatalf("strategy 2 output %q unexpectedly contains a syllable", got)
	}
	if repaired := NewEngine(nil).Repair("챗쨀쨉챗쨀혻"); repaired != "공고" {
		t.Errorf("engine picked the wrong strategy: got %q", repaired)
	}
}
