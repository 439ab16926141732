package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bizinfoStrategy handles bizinfo.go.kr detail pages, where attachments go
// through the shared file-management servlet.
func bizinfoStrategy() Strategy {
	return Strategy{
		Name: "bizinfo",
		Match: func(host string) bool {
			return strings.Contains(host, "bizinfo.go.kr")
		},
		Extract: func(doc *goquery.Document) []candidate {
			out := collect(doc, `a[href*="/cmm/fms/FileDown.do"]`)
			out = append(out, collect(doc, `.attached_file_list a`)...)
			return out
		},
	}
}

// kstartupStrategy handles k-startup.go.kr detail pages.
func kstartupStrategy() Strategy {
	return Strategy{
		Name: "kstartup",
		Match: func(host string) bool {
			return strings.Contains(host, "k-startup.go.kr")
		},
		Extract: func(doc *goquery.Document) []candidate {
			out := collect(doc, `a[href*="/afile/fileDownload/"]`)
			out = append(out, collect(doc, `.file_bg a`)...)
			return out
		},
	}
}

// genericStrategy matches common download-link shapes and document file
// extensions; used when no site strategy matches or one yields nothing.
func genericStrategy() Strategy {
	selectors := []string{
		`a[href*="download"]`,
		`a[href*="fileDown"]`,
		`a[href*="FileDown"]`,
		`a[href$=".pdf"]`,
		`a[href$=".hwp"]`,
		`a[href$=".hwpx"]`,
		`a[href$=".docx"]`,
		`a[href$=".xlsx"]`,
		`a[href$=".zip"]`,
	}
	return Strategy{
		Name:  "generic",
		Match: func(string) bool { return true },
		Extract: func(doc *goquery.Document) []candidate {
			var out []candidate
			for _, sel := range selectors {
				out = append(out, collect(doc, sel)...)
			}
			return out
		},
	}
}
