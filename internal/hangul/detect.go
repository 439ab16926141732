package hangul

import (
	"strings"
	"unicode"
)

// Detector decides whether a string exhibits Korean encoding corruption.
// Each heuristic is independent; any single hit flags the string.
type Detector struct {
	rare        map[rune]bool
	minRareHits int
	minJamoRun  int
	minHanRun   int
}

// NewDetector creates a Detector from the given tunables.
// Parameters:
//   - cfg: heuristic tunables; nil uses the built-in defaults.
// Returns:
//   - *Detector: configured detector.
func NewDetector(cfg *DetectorConfig) *Detector {
	if cfg == nil {
		cfg = &DetectorConfig{}
	}
	d := &Detector{
		rare:        cfg.rareSet(),
		minRareHits: cfg.MinRareHits,
		minJamoRun:  cfg.MinJamoRun,
		minHanRun:   cfg.MinHanRun,
	}
	if d.minRareHits <= 0 {
		d.minRareHits = 2
	}
	if d.minJamoRun <= 0 {
		d.minJamoRun = 2
	}
	if d.minHanRun <= 0 {
		d.minHanRun = 3
	}
	return d
}

// IsCorrupted reports whether s matches any corruption heuristic.
func (d *Detector) IsCorrupted(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsRune(s, '�') ||
		d.hasJamoCluster(s) ||
		d.hasLatinMojibake(s) ||
		d.hasHanRun(s) ||
		d.hasRareSyllables(s)
}

// hasJamoCluster detects runs of isolated jamo (unpaired consonants/vowels,
// U+3131..U+3163). Composed Korean text uses full syllable blocks; clusters
// of bare jamo come from byte-level mangling.
func (d *Detector) hasJamoCluster(s string) bool {
	run := 0
	for _, r := range s {
		if r >= 0x3131 && r <= 0x3163 {
			run++
			if run >= d.minJamoRun {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// hasLatinMojibake detects runs of high Latin-1 characters (U+00A1..U+00FF).
// UTF-8 or EUC-KR Korean bytes read under Latin-1 land in this range in
// pairs and triples; legitimate filenames in this domain do not.
func (d *Detector) hasLatinMojibake(s string) bool {
	run := 0
	for _, r := range s {
		if r >= 0x00A1 && r <= 0x00FF {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// hasHanRun detects unexpected runs of CJK-Han characters. Announcement
// titles and filenames are Hangul with occasional single hanja; three or
// more in a row is a mis-decoding signature.
func (d *Detector) hasHanRun(s string) bool {
	run := 0
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			run++
			if run >= d.minHanRun {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func (d *Detector) hasRareSyllables(s string) bool {
	hits := 0
	for _, r := range s {
		if d.rare[r] {
			hits++
			if hits >= d.minRareHits {
				return true
			}
		}
	}
	return false
}

// HasHangulSyllable reports whether s contains at least one composed Korean
// syllable (U+AC00..U+D7A3).
func HasHangulSyllable(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}
