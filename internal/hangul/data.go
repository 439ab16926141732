package hangul

// The detection sets below are empirical, not principled: they were collected
// by round-tripping common announcement vocabulary through the mis-decodings
// this package repairs (UTF-8 bytes read as EUC-KR, and the same after an
// intermediate Latin-1 stage). Legitimate-but-rare syllables can collide with
// them, so they are plain data, replaceable via DetectorConfig.

// defaultRareSyllables holds Hangul syllables that show up when UTF-8 Korean
// text is wrongly decoded under the EUC-KR code page. Two or more hits flag a
// string as corrupted.
const defaultRareSyllables = "곗궗궡긽꽌꾪냼닔닠덇듦듭떇떊떎뙆뙋룊먯몄묒뱶븞뼇뾽뿰쁺쇱쉷슜슫쏙썕썝쎌쑁쒓쒕쒖씤씪옙젒젙젣젴좎쭛챗챘챙챠컧컻쿂퀬텧혖혗혘혙혚혛혞혟혢혣혥혧혨혩혮혯혰혱혳혴혵혶혻"

// DetectorConfig carries the tunable data the corruption heuristics run on.
// The zero value selects the built-in defaults.
type DetectorConfig struct {
	// RareSyllables overrides the mis-encoding artifact syllable set.
	RareSyllables []rune
	// MinRareHits is the number of rare-syllable occurrences that flags
	// corruption (default 2).
	MinRareHits int
	// MinJamoRun is the length of an isolated-jamo cluster that flags
	// corruption (default 2).
	MinJamoRun int
	// MinHanRun is the length of a CJK-Han run that flags corruption
	// (default 3).
	MinHanRun int
}

func (c *DetectorConfig) rareSet() map[rune]bool {
	src := c.RareSyllables
	if len(src) == 0 {
		src = []rune(defaultRareSyllables)
	}
	set := make(map[rune]bool, len(src))
	for _, r := range src {
		set[r] = true
	}
	return set
}
