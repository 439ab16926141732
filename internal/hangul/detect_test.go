package hangul

import "testing"

func TestIsCorrupted(t *testing.T) {
	d := NewDetector(nil)

	testCases := []struct {
		name    string
		input   string
		corrupt bool
	}{
		{name: "plain ascii filename", input: "report_final.pdf", corrupt: false},
		{name: "clean korean filename", input: "사업계획서.hwp", corrupt: false},
		{name: "clean mixed title", input: "2024년 창업지원 공고.pdf", corrupt: false},
		{name: "single isolated jamo", input: "ㄱ. 사업 개요", corrupt: false},
		{name: "empty string", input: "", corrupt: false},
		{name: "jamo cluster", input: "ㅅㅣ청서 양식", corrupt: true},
		{name: "replacement character", input: "공�고문", corrupt: true},
		{name: "latin1 mangled utf8", input: "ì§ì.hwp", corrupt: true},
		{name: "euckr bytes as latin1", input: "°ø°í.hwp", corrupt: true},
		{name: "han run", input: "支援事業計劃", corrupt: true},
		{name: "mixed mojibake", input: "紐⑥쭛怨듦퀬", corrupt: true},
		{name: "rare syllables from euckr misread", input: "怨듦퀬.hwp", corrupt: true},
		{name: "rare syllables longer", input: "以묒냼湲곗뾽 지원", corrupt: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.IsCorrupted(tc.input); got != tc.corrupt {
				t.Errorf("IsCorrupted(%q) = %v, want %v", tc.input, got, tc.corrupt)
			}
		})
	}
}

func TestDetectorConfigOverrides(t *testing.T) {
	// An operator can swap the rare-syllable data without touching logic.
	d := NewDetector(&DetectorConfig{RareSyllables: []rune("가나"), MinRareHits: 2})

	if !d.IsCorrupted("가나다") {
		t.Error("expected custom rare set to flag string")
	}
	if d.IsCorrupted("怨듦퀬") {
		t.Error("default rare set should not apply when overridden")
	}
}

func TestHasHangulSyllable(t *testing.T) {
	if !HasHangulSyllable("공고.pdf") {
		t.Error("expected syllable in korean filename")
	}
	if HasHangulSyllable("plan.pdf") {
		t.Error("unexpected syllable in ascii filename")
	}
	if HasHangulSyllable("ㅅㅣ") {
		t.Error("bare jamo must not count as a composed syllable")
	}
}
