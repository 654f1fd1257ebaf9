package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is an in-memory S3 backend.
type mockS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	headErr      error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	if in.ContentType != nil {
		m.contentTypes[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return s
}

func testStores(t *testing.T) map[string]FileStore {
	return map[string]FileStore{
		"local": newTestLocal(t),
		"s3":    NewS3(newMockS3(), "bucket", "out"),
	}
}

func TestFileStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Read(ctx, "missing.wav"); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("Read(missing) error = %v; want ErrNotExist", err)
			}
			if err := WriteFile(ctx, s, "a/b/voice.wav", []byte("long content")); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if err := WriteFile(ctx, s, "a/b/voice.wav", []byte("RIFF")); err != nil {
				t.Fatalf("WriteFile(overwrite): %v", err)
			}
			got, err := ReadFile(ctx, s, "a/b/voice.wav")
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(got) != "RIFF" {
				t.Errorf("ReadFile = %q; want RIFF", got)
			}
			ok, err := s.Exists(ctx, "a/b/voice.wav")
			if err != nil || !ok {
				t.Errorf("Exists = %v, %v", ok, err)
			}
			if err := s.Delete(ctx, "a/b/voice.wav"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, "a/b/voice.wav"); err != nil {
				t.Fatalf("Delete(missing): %v", err)
			}
			if ok, _ := s.Exists(ctx, "a/b/voice.wav"); ok {
				t.Error("file still exists after Delete")
			}
			for _, p := range []string{"", "/etc/passwd", "../x", "a/../../x"} {
				if _, err := s.Write(ctx, p); !errors.Is(err, ErrInvalidPath) {
					t.Errorf("Write(%q) error = %v; want ErrInvalidPath", p, err)
				}
			}
		})
	}
}

func TestLocal_NoPartialFiles(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	w, err := s.Write(ctx, "out.wav")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("RIFF")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ok, _ := s.Exists(ctx, "out.wav"); ok {
		t.Error("file visible before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.wav" {
		t.Errorf("dir entries = %v", entries)
	}
}

func TestS3_KeysAndContentType(t *testing.T) {
	mock := newMockS3()
	s := NewS3(mock, "bucket", "my/prefix")
	if err := WriteFile(context.Background(), s, "dict/user.csv", []byte("a,b")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, ok := mock.objects["my/prefix/dict/user.csv"]; !ok {
		t.Fatalf("objects = %v", mock.objects)
	}
	if ct := mock.contentTypes["my/prefix/dict/user.csv"]; ct != "text/csv; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestS3_Errors(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	mock.putErr = errors.New("upload failed")
	mock.headErr = errors.New("network failure")
	s := NewS3(mock, "bucket", "")

	if err := WriteFile(ctx, s, "x.wav", []byte("data")); err == nil {
		t.Error("WriteFile should report the upload error")
	}
	if _, err := s.Exists(ctx, "x.wav"); err == nil || errors.Is(err, os.ErrNotExist) {
		t.Errorf("Exists error = %v", err)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.wav":   "audio/wav",
		"b.JSON":  "application/json",
		"c":       "application/octet-stream",
		"d.yaml":  "application/yaml",
		"e.bin":   "application/octet-stream",
		"f/g.csv": "text/csv; charset=utf-8",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q; want %q", name, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(dir): %v", err)
	}
	if l, ok := s.(*Local); !ok || l.Root() != dir {
		t.Errorf("Open(dir) = %#v", s)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	s, err = Open("file://" + dir)
	if err != nil {
		t.Fatalf("Open(file://): %v", err)
	}
	if _, ok := s.(*Local); !ok {
		t.Errorf("Open(file://) = %T", s)
	}

	s, err = Open("s3://voices/koe/out?region=ap-northeast-1&endpoint=http://localhost:9000&path_style=true")
	if err != nil {
		t.Fatalf("Open(s3://): %v", err)
	}
	s3s, ok := s.(*S3Store)
	if !ok || s3s.bucket != "voices" || s3s.prefix != "koe/out" {
		t.Errorf("Open(s3://) = %#v", s)
	}

	for _, uri := range []string{"", "s3:///prefix", "ftp://host/x"} {
		if _, err := Open(uri); err == nil {
			t.Errorf("Open(%q) should fail", uri)
		}
	}
}
