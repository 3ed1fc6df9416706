package main

import (
	"bytes"
	_ "embed"
	"net/http"
	"time"
)

//go:embed assets/favicon.png
var faviconPNG []byte

var faviconModTime = time.Unix(0, 0)

// handleFavicon serves the embedded favicon via http.ServeContent, which
// naturally honors Range requests and returns 416 Range Not Satisfiable for
// an out-of-bounds range without any bespoke range-parsing code here.
func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	http.ServeContent(w, r, "favicon.ico", faviconModTime, bytes.NewReader(faviconPNG))
}
