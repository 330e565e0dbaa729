// Package web embeds the badge desk page and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// GetTemplatesFS returns the embedded templates filesystem
func GetTemplatesFS() fs.FS {
	return mustSub(templatesFS, "templates")
}

// GetStaticFS returns the embedded static files filesystem
func GetStaticFS() fs.FS {
	return mustSub(staticFS, "static")
}

// mustSub panics on a bad directory name, which only a broken build can produce
func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
