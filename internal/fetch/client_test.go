package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    80 * time.Millisecond,
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("listing page"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	body, err := c.Fetch(context.Background(), srv.URL, KindPage, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != "listing page" {
		t.Errorf("body = %q, want %q", body, "listing page")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestFetchBackoffTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test sleeps for seconds")
	}

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 8 * time.Second}, nil)
	start := time.Now()
	if _, err := c.Fetch(context.Background(), srv.URL, KindPage, nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	// Two retries: >=1s before the second attempt, >=2s before the third.
	if elapsed := time.Since(start); elapsed < 3*time.Second {
		t.Errorf("elapsed = %v, want >= 3s of backoff", elapsed)
	}
}

func TestFetchRetriesRequestTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(400 * time.Millisecond)
			return
		}
		w.Write([]byte("listing page"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestTimeout = 80 * time.Millisecond
	c := New(cfg, nil)
	body, err := c.Fetch(context.Background(), srv.URL, KindPage, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != "listing page" {
		t.Errorf("body = %q, want %q", body, "listing page")
	}
	if got := atomic.LoadInt32(&calls); got < 2 {
		t.Errorf("server saw %d requests, want a retry after the timed-out attempt", got)
	}
}

func TestFetchDoesNotRetryCallerCancellation(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := New(testConfig(), nil)
	if _, err := c.Fetch(ctx, srv.URL, KindPage, nil); err == nil {
		t.Fatal("expected error after caller cancellation")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry after caller cancellation)", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	if _, err := c.Fetch(context.Background(), srv.URL, KindPage, nil); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retries on 4xx)", got)
	}
}

func TestFetchRetriesTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	if _, err := c.Fetch(context.Background(), srv.URL, KindPage, nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestFileFetchRejectsHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n  <!DOCTYPE html><html><body>session expired</body></html>"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	_, err := c.Fetch(context.Background(), srv.URL, KindFile, nil)
	if !errors.Is(err, ErrHTMLResponse) {
		t.Errorf("err = %v, want ErrHTMLResponse", err)
	}
}

func TestFileFetchEnforcesSizeCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxFileSize = 1024
	c := New(cfg, nil)
	_, err := c.Fetch(context.Background(), srv.URL, KindFile, nil)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestFileFetchRejectsHTMLBodyAfterBOM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\xef\xbb\xbf<html><body>login required</body></html>"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	_, err := c.Fetch(context.Background(), srv.URL, KindFile, nil)
	if !errors.Is(err, ErrHTMLResponse) {
		t.Errorf("err = %v, want ErrHTMLResponse", err)
	}
}

func TestFileFetchRejectsOversizedContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxFileSize = 1024
	c := New(cfg, nil)
	_, err := c.Fetch(context.Background(), srv.URL, KindFile, nil)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge from the content-length check", err)
	}
}

func TestFileFetchSendsRefererAndCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://portal.example/detail" {
			t.Errorf("referer = %q", r.Header.Get("Referer"))
		}
		if r.Header.Get("Cookie") != "JSESSIONID=abc" {
			t.Errorf("cookie = %q", r.Header.Get("Cookie"))
		}
		w.Write([]byte("%PDF-1.4 data"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	rc := &RequestContext{Referer: "https://portal.example/detail", Cookie: "JSESSIONID=abc"}
	if _, err := c.Fetch(context.Background(), srv.URL, KindFile, rc); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
}
