package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Krimson/dts-viewer/viewer/internal/export"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestS3Client(rt http.RoundTripper) *s3.Client {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		HTTPClient:  &http.Client{Transport: rt},
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://s3.test")
	})
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Etag": []string{`"etag"`}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func writeArtifacts(t *testing.T) export.Artifacts {
	t.Helper()
	dir := t.TempDir()
	a := export.Artifacts{
		ExperimentID: "exp-1",
		Label:        "S01",
		Anchor:       "peak",
		Raw:          filepath.Join(dir, "S01_raw.csv"),
		Filtered:     filepath.Join(dir, "S01_filtered.csv"),
		Summary:      filepath.Join(dir, "S01_summary.csv"),
	}
	for _, f := range a.Files() {
		if err := os.WriteFile(f, []byte("time_ms\n0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return a
}

func TestUploader_PutsEveryArtifact(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var contentTypes []string

	rt := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Errorf("Unexpected method %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "time_ms") {
			t.Errorf("Unexpected body %q", body)
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		mu.Unlock()
		return okResponse(), nil
	})

	u := NewUploader(newTestS3Client(rt), "bucket", "/exports/", nil)
	if err := u.Consume(context.Background(), writeArtifacts(t)); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	want := []string{
		"/bucket/exports/S01/exp-1/S01_raw.csv",
		"/bucket/exports/S01/exp-1/S01_filtered.csv",
		"/bucket/exports/S01/exp-1/S01_summary.csv",
	}
	if len(paths) != len(want) {
		t.Fatalf("Expected %d puts, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("put %d: expected %s, got %s", i, want[i], paths[i])
		}
		if contentTypes[i] != "text/csv" {
			t.Errorf("put %d: content type %q", i, contentTypes[i])
		}
	}
}

func TestUploader_MissingFile(t *testing.T) {
	called := false
	rt := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return okResponse(), nil
	})

	a := writeArtifacts(t)
	os.Remove(a.Raw)

	u := NewUploader(newTestS3Client(rt), "bucket", "", nil)
	if err := u.Consume(context.Background(), a); err == nil {
		t.Fatal("Expected error for missing artifact")
	}
	if called {
		t.Error("Expected no request for a missing file")
	}
}

func TestUploader_Key(t *testing.T) {
	u := NewUploader(nil, "b", "", nil)
	a := export.Artifacts{ExperimentID: "id", Label: "lbl"}
	if got := u.Key(a, "/x/y/lbl_summary.parquet"); got != "lbl/id/lbl_summary.parquet" {
		t.Errorf("Unexpected key %q", got)
	}
	if contentType("a.parquet") != "application/vnd.apache.parquet" {
		t.Error("Unexpected parquet content type")
	}
}
