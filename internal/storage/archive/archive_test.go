package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves the subset of the S3 API the archive uses from memory.
type fakeS3 struct{ objects map[string][]byte }

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	ok := func(body []byte, header http.Header) *http.Response {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
	}

	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return ok([]byte(b.String()), http.Header{"Content-Type": {"application/xml"}}), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		f.objects[key] = body
		return ok(nil, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		body, found := f.objects[key]
		if !found {
			return &http.Response{StatusCode: 404, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
		}
		return ok(body, http.Header{"Content-Length": {strconv.Itoa(len(body))}}), nil
	}
	return &http.Response{StatusCode: 501, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

// decodeChunked strips aws-chunked framing from a single-chunk upload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newTestArchive(t *testing.T, prefix string) (*Archive, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	a, err := New(context.Background(), Config{
		Bucket:          "runs",
		Prefix:          prefix,
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
	})
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	return a, fake
}

func writeRun(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"metadata.json": `{"id":"pair_1"}`,
		"stats.csv":     "step,time\n0,0\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPushListPull(t *testing.T) {
	ctx := context.Background()
	a, fake := newTestArchive(t, "/experiments/")

	src := filepath.Join(t.TempDir(), "pair_1")
	writeRun(t, src)

	n, err := a.Push(ctx, "pair_1", src)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 objects, got %d", n)
	}
	if _, ok := fake.objects["experiments/pair_1/stats.csv"]; !ok {
		t.Errorf("unexpected keys %v", fake.objects)
	}

	runs, err := a.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !slices.Equal(runs, []string{"pair_1"}) {
		t.Errorf("unexpected runs %v", runs)
	}

	dst := filepath.Join(t.TempDir(), "restored")
	n, err = a.Pull(ctx, "pair_1", dst)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files, got %d", n)
	}
	data, err := os.ReadFile(filepath.Join(dst, "metadata.json"))
	if err != nil || string(data) != `{"id":"pair_1"}` {
		t.Errorf("metadata mismatch: %q %v", data, err)
	}
}

func TestPullMissingRun(t *testing.T) {
	a, _ := newTestArchive(t, "")
	if _, err := a.Pull(context.Background(), "nope", t.TempDir()); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error without bucket")
	}
}

func TestKey(t *testing.T) {
	a := &Archive{prefix: "p"}
	if got := a.key("run", "stats.csv"); got != "p/run/stats.csv" {
		t.Errorf("unexpected key %s", got)
	}
	a.prefix = ""
	if got := a.key("run"); got != "run" {
		t.Errorf("unexpected key %s", got)
	}
}
