// Package classify decides what a downloaded buffer really is and whether a
// named attachment is worth downloading at all. Format detection trusts
// magic bytes only; extensions from untrusted URLs lie.
package classify

import (
	"bytes"
	"path"
	"strings"

	"github.com/hyunsoo/bizharvest/internal/domain"
)

var (
	pdfMagic = []byte("%PDF")
	// OLE compound file header used by HWP 5.x binary documents.
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	// ZIP local file header used by HWPX (and other OOXML-style) documents.
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// DetectFormat inspects the leading bytes of a buffer and returns the
// detected document format, ignoring any claimed file extension.
// Parameters:
//   - data: downloaded byte buffer (leading bytes are sufficient).
// Returns:
//   - domain.FileFormat: detected format, FileFormatUnknown when no magic matches.
func DetectFormat(data []byte) domain.FileFormat {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return domain.FileFormatPDF
	case bytes.HasPrefix(data, oleMagic):
		return domain.FileFormatHWP
	case bytes.HasPrefix(data, zipMagic):
		return domain.FileFormatHWPX
	default:
		return domain.FileFormatUnknown
	}
}

// Keyword tiers for parse-worthiness ranking. Higher priority files seed
// downstream analysis first when only one attachment can be used.
const (
	PriorityAnnouncement = 100
	PriorityApplication  = 80
	PriorityBusinessPlan = 60
	PriorityEvaluation   = 40
	PriorityOtherDoc     = 20
	PriorityNone         = 0
)

var (
	announcementTerms = []string{"공고", "공고문", "공지", "모집", "안내문"}
	applicationTerms  = []string{"신청서", "지원서", "신청양식", "양식", "서식"}
	planTerms         = []string{"사업계획", "계획서"}
	evaluationTerms   = []string{"평가", "심사", "선정기준"}

	denyTerms = []string{"로고", "배너", "썸네일", "바로가기", "logo", "banner", "thumbnail", "icon"}

	docExtensions = map[string]bool{
		".pdf":  true,
		".hwp":  true,
		".hwpx": true,
	}
)

// Decision is the pre-download verdict for a named attachment.
type Decision struct {
	ShouldParse bool
	Priority    int
}

// Evaluate ranks a filename before download. Deny-listed names are skipped
// outright; keyword matches rank by informativeness; files with a known
// document extension default to parse-worthy even without keyword hits.
// Parameters:
//   - filename: display filename, ideally after encoding repair.
// Returns:
//   - Decision: parse-worthiness and ordering priority.
func Evaluate(filename string) Decision {
	name := strings.ToLower(filename)

	for _, term := range denyTerms {
		if strings.Contains(name, term) {
			return Decision{ShouldParse: false, Priority: PriorityNone}
		}
	}

	tiers := []struct {
		terms    []string
		priority int
	}{
		{announcementTerms, PriorityAnnouncement},
		{applicationTerms, PriorityApplication},
		{planTerms, PriorityBusinessPlan},
		{evaluationTerms, PriorityEvaluation},
	}
	for _, tier := range tiers {
		for _, term := range tier.terms {
			if strings.Contains(name, term) {
				return Decision{ShouldParse: true, Priority: tier.priority}
			}
		}
	}

	if docExtensions[strings.ToLower(path.Ext(name))] {
		return Decision{ShouldParse: true, Priority: PriorityOtherDoc}
	}
	return Decision{ShouldParse: false, Priority: PriorityNone}
}
