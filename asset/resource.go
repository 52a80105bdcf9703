package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Upper bound for the size of a scene file loaded into memory by ReadAll.
const MaxSceneFileSize = 4 << 30

var (
	ErrUnsupportedScheme = errors.New("resource: unsupported scheme")
	ErrTooLarge          = errors.New("resource: scene file too large")
)

// A Resource is an open scene file. It is either a local file or a file
// streamed over http(s). Wavefront files use the resource of the including
// file to resolve relative references.
type Resource struct {
	io.ReadCloser
	url *url.URL

	// Size in bytes or -1 if unknown.
	size int64
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the base file name of this resource.
func (r *Resource) Name() string {
	return path.Base(r.url.Path)
}

// Returns the lower-case file extension (including the dot) of this resource.
// Query strings of remote resources are ignored.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Returns the size of the resource in bytes or -1 if it is not known in advance.
func (r *Resource) Size() int64 {
	return r.size
}

// Read the entire resource into memory. Resources larger than
// MaxSceneFileSize are rejected with ErrTooLarge.
func (r *Resource) ReadAll() ([]byte, error) {
	if r.size > MaxSceneFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, r.Path(), r.size)
	}

	var buf bytes.Buffer
	if r.size > 0 {
		buf.Grow(int(r.size))
	}
	n, err := buf.ReadFrom(io.LimitReader(r, MaxSceneFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("resource: could not read %s: %w", r.Path(), err)
	}
	if n > MaxSceneFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, r.Path(), int64(MaxSceneFileSize))
	}
	return buf.Bytes(), nil
}

// Open a scene file. If relTo is specified and pathToResource does not define
// a scheme, the path is resolved against the directory of relTo.
//
// http/https URLs are fetched with the net/http package. The caller must
// close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := resolveURL(pathToResource, relTo)
	if err != nil {
		return nil, err
	}

	switch resURL.Scheme {
	case "":
		return openFile(resURL)
	case "http", "https":
		return fetch(resURL)
	}
	return nil, fmt.Errorf("%w '%s'", ErrUnsupportedScheme, resURL.Scheme)
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
		size:       -1,
	}
}

func resolveURL(pathToResource string, relTo *Resource) (*url.URL, error) {
	// Windows paths use backslashes
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}
	if resURL.Scheme != "" || relTo == nil {
		return resURL, nil
	}

	// Relative reference: clone the parent url and replace the file name
	relPath := resURL.Path
	resURL, _ = url.Parse(relTo.url.String())
	prefix := resURL.Path
	if resURL.Scheme == "" {
		if prefix, err = filepath.Abs(relTo.url.String()); err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.url.String(), err)
		}
	}
	resURL.Path = filepath.Dir(prefix) + "/" + relPath
	return resURL, nil
}

func openFile(resURL *url.URL) (*Resource, error) {
	f, err := os.Open(filepath.Clean(resURL.Path))
	if err != nil {
		return nil, err
	}

	size := int64(-1)
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		size = info.Size()
	}
	return &Resource{ReadCloser: f, url: resURL, size: size}, nil
}

func fetch(resURL *url.URL) (*Resource, error) {
	resp, err := http.Get(resURL.String())
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
	}
	return &Resource{ReadCloser: resp.Body, url: resURL, size: resp.ContentLength}, nil
}
