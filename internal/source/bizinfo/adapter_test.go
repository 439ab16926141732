package bizinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyunsoo/bizharvest/internal/fetch"
)

const listingHTML = `<!DOCTYPE html>
<html><body>
<div class="table_Ty1"><table><tbody>
<tr>
  <td>128</td><td>금융</td>
  <td class="txt_l"><a href="view.do?pblancId=PBLN_000000000012345">2026년 중소기업 정책자금 융자계획 공고</a></td>
  <td>중소벤처기업부</td><td>2026-08-29</td>
</tr>
<tr>
  <td>127</td><td>기술</td>
  <td class="txt_l"><a href="view.do?pblancId=PBLN_000000000012346">창업성장기술개발사업 시행계획 공고</a></td>
  <td>중소기업기술정보진흥원</td><td>2026.08.28</td>
</tr>
<tr><td colspan="5">등록된 공고가 없습니다.</td></tr>
</tbody></table></div>
</body></html>`

func TestFetchPageParsesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != listPath {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("cpage") != "1" {
			t.Errorf("expected cpage=1, got %q", r.URL.Query().Get("cpage"))
		}
		w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	adapter := NewAdapter(srv.URL, fetch.New(fetch.Config{}, nil))
	items, err := adapter.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("fetch page failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ExternalID != "PBLN_000000000012345" {
		t.Errorf("external ID: got %q", first.ExternalID)
	}
	if first.Title != "2026년 중소기업 정책자금 융자계획 공고" {
		t.Errorf("title: got %q", first.Title)
	}
	if first.Organization != "중소벤처기업부" {
		t.Errorf("organization: got %q", first.Organization)
	}
	if first.Category != "금융" {
		t.Errorf("category: got %q", first.Category)
	}
	want := srv.URL + "/web/lay1/bbs/S1T122C128/AS/74/view.do?pblancId=PBLN_000000000012345"
	if first.DetailURL != want {
		t.Errorf("detail URL: got %q, want %q", first.DetailURL, want)
	}
	if first.PostedAt == nil || first.PostedAt.Format("2006-01-02") != "2026-08-29" {
		t.Errorf("posted at: got %v", first.PostedAt)
	}
	if items[1].PostedAt == nil || items[1].PostedAt.Format("2006-01-02") != "2026-08-28" {
		t.Errorf("dotted date: got %v", items[1].PostedAt)
	}
}

func TestFetchPageEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="table_Ty1"><table><tbody></tbody></table></div></body></html>`))
	}))
	defer srv.Close()

	adapter := NewAdapter(srv.URL, fetch.New(fetch.Config{}, nil))
	items, err := adapter.FetchPage(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch page failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items past the last page, got %d", len(items))
	}
}
