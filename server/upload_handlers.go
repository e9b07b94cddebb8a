package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"CadenceFM/model"
)

// UploadTrackHandler handles audio file uploads.
// Expected multipart form fields:
// - trackFile: the audio file
// - trackName: display name (defaults to the file name)
// - duration: duration in seconds, extracted client-side
// - bitrate: kbps (optional)
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("trackFile")
	if err != nil {
		http.Error(w, "Missing 'trackFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("trackName"))
	if name == "" {
		name = header.Filename
	}

	duration, err := strconv.ParseFloat(r.FormValue("duration"), 64)
	if err != nil || duration < 0 {
		http.Error(w, "'duration' must be a non-negative number of seconds", http.StatusBadRequest)
		return
	}
	bitrate, _ := strconv.ParseFloat(r.FormValue("bitrate"), 64)

	id, url, err := h.uploader.UploadAudio(r.Context(), file, header.Size, header.Filename,
		header.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to store audio file: %v", err), http.StatusBadGateway)
		return
	}

	respondWithJSON(w, http.StatusCreated, model.Track{
		ID:       id,
		Name:     name,
		URL:      url,
		Duration: duration,
		Bitrate:  bitrate,
		Size:     header.Size,
	})
}

// UploadCoverHandler handles cover image uploads.
// Expected multipart form field: coverFile.
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil { // 8MB max memory
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("coverFile")
	if err != nil {
		http.Error(w, "Missing 'coverFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	_, url, err := h.uploader.UploadCover(r.Context(), file, header.Size, header.Filename,
		header.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to store cover image: %v", err), http.StatusBadGateway)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"coverUrl": url})
}
