package response // import "github.com/mangashelf/mangashelf/http/response"

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseHasCommonHeaders(t *testing.T) {
	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		New(w, r).Write()
	})

	handler.ServeHTTP(w, r)
	resp := w.Result()

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}

	for header, expected := range headers {
		actual := resp.Header.Get(header)
		if actual != expected {
			t.Fatalf(`Unexpected header value, got %q instead of %q`, actual, expected)
		}
	}
}

func TestBuildResponseWithCustomStatusCode(t *testing.T) {
	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		New(w, r).WithStatus(http.StatusNotAcceptable).Write()
	})

	handler.ServeHTTP(w, r)
	resp := w.Result()

	if resp.StatusCode != http.StatusNotAcceptable {
		t.Fatalf(`Unexpected status code, got %d instead of %d`, resp.StatusCode, http.StatusNotAcceptable)
	}
}

func TestSmallResponseIsNotCompressed(t *testing.T) {
	body := "small body"

	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		New(w, r).WithBody(body).Write()
	})

	handler.ServeHTTP(w, r)
	resp := w.Result()

	if encoding := resp.Header.Get("Content-Encoding"); encoding != "" {
		t.Fatalf(`Unexpected Content-Encoding header: %q`, encoding)
	}

	if w.Body.String() != body {
		t.Fatalf(`Unexpected body, got %q`, w.Body.String())
	}
}

func TestLargeResponseUsesBrotliWhenAccepted(t *testing.T) {
	body := strings.Repeat("x", compressionThreshold+1)

	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Accept-Encoding", "br, gzip")

	w := httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		New(w, r).WithBody(body).Write()
	})

	handler.ServeHTTP(w, r)
	resp := w.Result()

	if encoding := resp.Header.Get("Content-Encoding"); encoding != "br" {
		t.Fatalf(`Unexpected Content-Encoding header, got %q instead of "br"`, encoding)
	}
}

func TestCompressionCanBeDisabled(t *testing.T) {
	body := strings.Repeat("x", compressionThreshold+1)

	r, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Accept-Encoding", "br, gzip")

	w := httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		New(w, r).WithBody(body).WithoutCompression().Write()
	})

	handler.ServeHTTP(w, r)
	resp := w.Result()

	if encoding := resp.Header.Get("Content-Encoding"); encoding != "" {
		t.Fatalf(`Unexpected Content-Encoding header: %q`, encoding)
	}

	if w.Body.String() != body {
		t.Fatal(`Response body should not be compressed`)
	}
}
