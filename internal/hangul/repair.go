// Package hangul detects and repairs Korean text mangled by mismatched
// character encodings (UTF-8 read as EUC-KR, EUC-KR read as Latin-1, and
// chained variants). Repair is best-effort: when no strategy produces a
// convincing result the input is returned unchanged, never discarded.
package hangul

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
)

// Strategy is one reversible decode/encode transform. Apply returns the
// transformed string and whether the transform was applicable at all;
// plausibility of the result is judged by the engine, not the strategy.
type Strategy struct {
	Name  string
	Apply func(s string) (string, bool)
}

// Engine runs corruption detection and the ordered repair strategies.
type Engine struct {
	detector   *Detector
	strategies []Strategy
}

// NewEngine creates a repair engine with the default strategy order.
// Parameters:
//   - cfg: detector tunables; nil uses the built-in defaults.
// Returns:
//   - *Engine: configured engine.
func NewEngine(cfg *DetectorConfig) *Engine {
	return &Engine{
		detector:   NewDetector(cfg),
		strategies: defaultStrategies(),
	}
}

// Detector exposes the engine's corruption detector.
func (e *Engine) Detector() *Detector {
	return e.detector
}

// Repair returns the recovered form of s, or s unchanged when s is not
// corrupted or no strategy yields a plausible recovery. A result is accepted
// when it differs from the input, contains at least one Hangul syllable, and
// itself passes the corruption check.
func (e *Engine) Repair(s string) string {
	if !e.detector.IsCorrupted(s) {
		return s
	}
	for _, st := range e.strategies {
		out, ok := st.Apply(s)
		if !ok || out == s {
			continue
		}
		if !HasHangulSyllable(out) {
			continue
		}
		if e.detector.IsCorrupted(out) {
			continue
		}
		return out
	}
	return s
}

// defaultStrategies returns the repair transforms in attempt order. The
// order matters: earlier strategies cover the common single-stage
// corruptions, later ones the chained and reverse-direction variants.
func defaultStrategies() []Strategy {
	return []Strategy{
		{Name: "latin1-roundtrip", Apply: latin1RoundTrip},
		{Name: "euckr-reencode", Apply: eucKRReencodeStrict},
		{Name: "euckr-reencode-lenient", Apply: eucKRReencodeLenient},
		{Name: "euckr-latin1-chain", Apply: eucKRLatin1Chain},
		{Name: "raw-bytes-euckr", Apply: rawBytesAsEUCKR},
		{Name: "utf8-bytes-euckr", Apply: utf8BytesAsEUCKR},
	}
}

// latin1Bytes converts s to the byte sequence it denotes when every rune is
// a Latin-1 code point. Reports false when any rune exceeds 0xFF.
func latin1Bytes(s string) ([]byte, bool) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, false
		}
		b = append(b, byte(r))
	}
	return b, true
}

func eucKREncode(s string) ([]byte, error) {
	return korean.EUCKR.NewEncoder().Bytes([]byte(s))
}

func eucKREncodeLenient(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(korean.EUCKR.NewEncoder())
	return enc.Bytes([]byte(s))
}

func eucKRDecode(b []byte) (string, error) {
	out, err := korean.EUCKR.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Strategy 1: the string is UTF-8 bytes that were decoded as Latin-1;
// undo the Latin-1 stage and re-read as UTF-8.
func latin1RoundTrip(s string) (string, bool) {
	b, ok := latin1Bytes(s)
	if !ok || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Strategy 2: the string is UTF-8 bytes that were decoded as EUC-KR;
// re-encode under EUC-KR to recover the original bytes, then read as UTF-8.
func eucKRReencodeStrict(s string) (string, bool) {
	b, err := eucKREncode(s)
	if err != nil || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Strategy 3: same corruption family as strategy 2, with the tolerant
// encoder variant for strings the strict encoder refuses.
func eucKRReencodeLenient(s string) (string, bool) {
	b, err := eucKREncodeLenient(s)
	if err != nil || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Strategy 4: chained corruption through an intermediate Latin-1 stage:
// EUC-KR encode, read as UTF-8, Latin-1 encode, read as UTF-8 again.
func eucKRLatin1Chain(s string) (string, bool) {
	b1, err := eucKREncode(s)
	if err != nil || !utf8.Valid(b1) {
		return "", false
	}
	b2, ok := latin1Bytes(string(b1))
	if !ok || !utf8.Valid(b2) {
		return "", false
	}
	return string(b2), true
}

// Strategy 5: the string is raw EUC-KR bytes shown as Latin-1 code points;
// recover the bytes and decode them under EUC-KR directly.
func rawBytesAsEUCKR(s string) (string, bool) {
	b, ok := latin1Bytes(s)
	if !ok {
		return "", false
	}
	out, err := eucKRDecode(b)
	if err != nil {
		return "", false
	}
	return out, true
}

// Strategy 6: reverse-direction last resort: decode the string's own UTF-8
// byte sequence under EUC-KR.
func utf8BytesAsEUCKR(s string) (string, bool) {
	out, err := eucKRDecode([]byte(s))
	if err != nil {
		return "", false
	}
	return out, true
}
