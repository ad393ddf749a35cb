package http

import (
	"net/http"

	"github.com/estatehq/backoffice/internal/backoffice/media"
	"github.com/estatehq/backoffice/pkg/httpx"
	"github.com/estatehq/backoffice/pkg/slogx"
)

// maxUploadBytes bounds the in-memory portion of a multipart parse.
const maxUploadBytes = 10 << 20

// UploadHandler forwards multipart image uploads to the media host.
type UploadHandler struct {
	Uploader *media.Uploader
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HandleUpload handles POST /media/upload
//
//	@Summary		Upload an image
//	@Description	Forwards the multipart file to the media host and returns its hosted URL. Nothing is stored locally.
//	@Tags			Media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		502		{object}	httpx.Envelope
//	@Router			/media/upload [post].
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	url, err := h.Uploader.Upload(ctx, header.Filename, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("file uploaded", "filename", header.Filename)
	httpx.WriteData(w, http.StatusOK, "file uploaded successfully", uploadResponse{URL: url})
}
