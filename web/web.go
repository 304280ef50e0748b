// Package web serves the built-in pages: the public note list and the
// admin login and registration forms that drive the passkey ceremonies.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// Handler serves the embedded pages. "/" maps to index.html, and the
// ceremony pages get extension-free routes.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The subtree is embedded at build time.
		panic(err)
	}
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/register", "/login", "/admin":
			r.URL.Path += ".html"
		}
		fileServer.ServeHTTP(w, r)
	})
}
