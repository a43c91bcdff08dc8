package api

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// handleReviewImage proxies a review photo so the browser never talks to the
// review platform directly. Only URLs that appear in a stored review are
// fetched; anything else is rejected to keep this from being an open proxy.
func (s *Server) handleReviewImage(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		http.Error(w, "src required", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		http.Error(w, "invalid src", http.StatusBadRequest)
		return
	}
	if !s.knownImage(src) {
		http.Error(w, "unknown image", http.StatusForbidden)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := s.images.Do(req)
	if err != nil {
		log.Printf("fetch review image: %v", err)
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		http.Error(w, "not an image", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, resp.Body)
}

func (s *Server) knownImage(src string) bool {
	reviews, err := s.store.LoadReviews()
	if err != nil {
		return false
	}
	for _, rev := range reviews {
		for _, img := range rev.Images {
			if img == src {
				return true
			}
		}
	}
	return false
}
