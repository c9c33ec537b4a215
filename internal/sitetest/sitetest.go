// Package sitetest serves a handful of recorded class pages from the mapping
// site over httptest, for tests that exercise the full fetch path.
package sitetest

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

//go:embed testdata/*.html
var pages embed.FS

// Version is the only game version the fixture site publishes.
const Version = "1.20.1"

// Class paths with a recorded page.
const (
	Minecraft = "net.minecraft.client.Minecraft"
	Entity    = "net.minecraft.world.entity.Entity"
	AABB      = "net.minecraft.world.phys.AABB"
	NoMarker  = "net.minecraft.server.MinecraftServer"
	Empty     = "net.minecraft.Empty"
	Missing   = "net.minecraft.DoesNotExist"
)

var files = map[string]string{
	Minecraft: "minecraft.html",
	Entity:    "entity.html",
	AABB:      "aabb.html",
	NoMarker:  "nomarker.html",
	Empty:     "empty.html",
}

// Site is a running fixture server.
type Site struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// New starts a fixture server, closed when t ends. Unknown pages answer 404.
func New(t testing.TB) *Site {
	t.Helper()
	s := &Site{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/"+Version+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	classPath := strings.ReplaceAll(strings.TrimSuffix(rest, ".html"), "/", ".")
	name, ok := files[classPath]
	if !ok {
		http.NotFound(w, r)
		return
	}
	body, err := pages.ReadFile("testdata/" + name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

// Path returns the URL path of classPath's page.
func Path(classPath string) string {
	return "/" + Version + "/" + strings.ReplaceAll(classPath, ".", "/") + ".html"
}

// Hits returns how many requests reached path.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served.
func (s *Site) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// Page returns the raw bytes of a recorded page.
func Page(t testing.TB, classPath string) []byte {
	t.Helper()
	name, ok := files[classPath]
	if !ok {
		t.Fatalf("sitetest: no page for %s", classPath)
	}
	body, err := pages.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("sitetest: %v", err)
	}
	return body
}
