// Package site serves the embedded kiosk display page. The page is a
// static shell; all data arrives over the API's SSE streams.
package site

import "net/http"

// Handler serves the embedded static site.
func Handler() http.Handler {
	return http.FileServer(FS())
}
