package asset

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" {
			w.Write([]byte("OK"))
		} else if r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("file2.go", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("embedded.obj", strings.NewReader("v 0 0 0"))
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected stream resource not to be remote")
	}
	if res.Path() != "embedded.obj" || res.Name() != "embedded.obj" {
		t.Fatalf("expected resource path to be embedded.obj; got %q / %q", res.Path(), res.Name())
	}
	if res.Size() != -1 {
		t.Fatalf("expected stream size to be unknown; got %d", res.Size())
	}

	data, err := res.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v 0 0 0" {
		t.Fatalf("unexpected resource payload %q", string(data))
	}
}

func TestResourceNameAndExt(t *testing.T) {
	type spec struct {
		path    string
		expName string
		expExt  string
	}
	specs := []spec{
		{"scene.OBJ", "scene.OBJ", ".obj"},
		{"http://example.com/scenes/room.zip?rev=2", "room.zip", ".zip"},
		{"assets/models/chair.obj", "chair.obj", ".obj"},
		{"noext", "noext", ""},
	}

	for index, s := range specs {
		res := NewResourceFromStream(s.path, strings.NewReader(""))
		if res.Name() != s.expName {
			t.Fatalf("[spec %d] expected name %q; got %q", index, s.expName, res.Name())
		}
		if res.Ext() != s.expExt {
			t.Fatalf("[spec %d] expected ext %q; got %q", index, s.expExt, res.Ext())
		}
	}
}

func TestLocalResourceSize(t *testing.T) {
	sceneFile := filepath.Join(t.TempDir(), "scene.obj")
	if err := os.WriteFile(sceneFile, []byte("v 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewResource(sceneFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.Size() != 8 {
		t.Fatalf("expected size 8; got %d", res.Size())
	}
	if res.Ext() != ".obj" {
		t.Fatalf("expected ext .obj; got %q", res.Ext())
	}
	data, err := res.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Fatalf("expected to read 8 bytes; got %d", len(data))
	}
}

func TestResourceTooLarge(t *testing.T) {
	res := NewResourceFromStream("huge.zip", strings.NewReader(""))
	res.size = MaxSceneFileSize + 1

	_, err := res.ReadAll()
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge; got %v", err)
	}
}

func TestUnsupportedSchemeError(t *testing.T) {
	_, err := NewResource("ftp://example.com/scene.obj", nil)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme; got %v", err)
	}
}
