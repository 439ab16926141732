package classify

import (
	"testing"

	"github.com/hyunsoo/bizharvest/internal/domain"
)

func TestDetectFormatIgnoresExtension(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		want domain.FileFormat
	}{
		{name: "pdf header", data: []byte("%PDF-1.7\n%stuff"), want: domain.FileFormatPDF},
		{name: "ole header", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00}, want: domain.FileFormatHWP},
		{name: "zip header", data: []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}, want: domain.FileFormatHWPX},
		{name: "html error page", data: []byte("<!DOCTYPE html><html>"), want: domain.FileFormatUnknown},
		{name: "empty buffer", data: nil, want: domain.FileFormatUnknown},
		{name: "truncated magic", data: []byte{0xD0, 0xCF}, want: domain.FileFormatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.data); got != tc.want {
				t.Errorf("DetectFormat = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluatePriorityOrdering(t *testing.T) {
	testCases := []struct {
		name        string
		filename    string
		shouldParse bool
		priority    int
	}{
		{name: "announcement ranks highest", filename: "2024년 창업지원 공고문.hwp", shouldParse: true, priority: PriorityAnnouncement},
		{name: "application form", filename: "신청서 양식.hwp", shouldParse: true, priority: PriorityApplication},
		{name: "business plan", filename: "사업계획서.hwp", shouldParse: true, priority: PriorityBusinessPlan},
		{name: "evaluation criteria", filename: "평가기준표.pdf", shouldParse: true, priority: PriorityEvaluation},
		{name: "known ext without keywords", filename: "seongnam_2024.pdf", shouldParse: true, priority: PriorityOtherDoc},
		{name: "unknown ext without keywords", filename: "photo.jpg", shouldParse: false, priority: PriorityNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.filename)
			if got.ShouldParse != tc.shouldParse || got.Priority != tc.priority {
				t.Errorf("Evaluate(%q) = %+v, want parse=%v priority=%d",
					tc.filename, got, tc.shouldParse, tc.priority)
			}
		})
	}
}

func TestEvaluateDenyListWinsOverExtension(t *testing.T) {
	for _, filename := range []string{"로고.pdf", "banner_2024.hwp", "기관 썸네일.hwpx", "LOGO.PDF"} {
		got := Evaluate(filename)
		if got.ShouldParse {
			t.Errorf("Evaluate(%q).ShouldParse = true, want false", filename)
		}
	}
}

func TestEvaluateAnnouncementBeatsApplicationWhenBothMatch(t *testing.T) {
	// A file named like both tiers should take the higher tier.
	got := Evaluate("공고 및 신청서.hwp")
	if got.Priority != PriorityAnnouncement {
		t.Errorf("priority = %d, want %d", got.Priority, PriorityAnnouncement)
	}
}
