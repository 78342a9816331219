// Package site serves the embedded landing page.
package site

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

//go:embed static/*
var staticFS embed.FS

// FS returns an http.FileSystem for the embedded site.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Register attaches the landing page to mux. Only the exact root and its
// assets are served so unknown paths still 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServer(FS())
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /assets/", http.StripPrefix("/assets", files))
}
