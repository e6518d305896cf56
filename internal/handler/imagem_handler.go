package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// ImagemHandler receives image uploads and serves image deletion.
type ImagemHandler struct {
	svc *service.Services
}

// NewImagemHandler creates the image handler.
func NewImagemHandler(svc *service.Services) *ImagemHandler {
	return &ImagemHandler{svc: svc}
}

// Upload attaches images to a part. The multipart form may carry any
// number of files under "imagens" plus an "imagem_url" field to fetch a
// remote image; both are appended to the part's image sequence.
func (h *ImagemHandler) Upload(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	produto, err := h.svc.Produto.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "produto not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "invalid multipart form: "+err.Error())
		return
	}

	var filenames []string
	for _, file := range form.File["imagens"] {
		if !service.AllowedFile(file.Filename) {
			BadRequest(c, "unsupported image type: "+file.Filename)
			return
		}
		filename, err := h.svc.Imagem.SaveUpload(produto.Codigo, file)
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		filenames = append(filenames, filename)
	}

	if url := c.PostForm("imagem_url"); url != "" {
		filename, err := h.svc.Imagem.DownloadFromURL(c.Request.Context(), url, produto.Codigo)
		if err != nil {
			BadRequest(c, "download image: "+err.Error())
			return
		}
		filenames = append(filenames, filename)
	}

	if len(filenames) == 0 {
		BadRequest(c, "no image provided")
		return
	}

	if err := h.svc.Produto.AddImagens(c.Request.Context(), id, filenames); err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, gin.H{"filenames": filenames})
}

// Delete removes one image record and, when it was the last reference to
// the file, the file itself.
func (h *ImagemHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Imagem.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "imagem not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}
