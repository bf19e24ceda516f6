package handlers

import (
	"net/http"
)

const maxUploadBytes = 8 << 20 // 8MB

// Upload accepts a multipart file and returns its stable URL. The
// resulting url/fileName/fileType triple is what SendMessage expects
// for a file message.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	url, err := h.uploads.Save(header.Filename, contentType, file)
	if err != nil {
		h.logger.Error().Err(err).Str("file", header.Filename).Msg("upload failed")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.JSON(w, http.StatusCreated, map[string]string{
		"url":      url,
		"fileName": header.Filename,
		"fileType": contentType,
	})
}
