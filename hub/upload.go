package main

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/clipharbor/hub/hub/blobstore"
	"github.com/clipharbor/hub/shared/apierr"
	"github.com/clipharbor/hub/shared/models"
	log "github.com/sirupsen/logrus"
)

// maxUploadBytes bounds the multipart body read into memory before
// streaming to disk; generously sized for clipboard screenshots.
const maxUploadBytes = 64 << 20

// handleUploadImage implements the blob store's upload path: reject
// non-PNG parts, dedup by digest before ever touching disk, otherwise
// write the file and index the record.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "device_id required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierr.Write(w, apierr.New(apierr.BadRequest, "invalid multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := firstPart(r)
	if err != nil {
		apierr.Write(w, apierr.New(apierr.BadRequest, "no file part in upload"))
		return
	}
	defer part.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "image/png" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "only image/png uploads are accepted"))
		return
	}

	data, err := io.ReadAll(part)
	if err != nil {
		apierr.Write(w, apierr.New(apierr.Internal, "failed to read upload"))
		return
	}

	// Dedup by digest before writing anything: a repeat upload of identical
	// bytes must not create a second file.
	id := blobstore.DigestBytes(data).Encoded()
	if existing, err := s.state.index.GetEntryByID(id); err != nil {
		log.WithError(err).Error("dedup lookup failed")
		apierr.Write(w, apierr.New(apierr.Internal, "dedup lookup failed"))
		return
	} else if existing != nil && existing.Entry.IsImage() {
		w.Write([]byte(existing.Entry.ImageURL))
		return
	}

	url, err := s.state.blobs.Save(deviceID, data)
	if err != nil {
		log.WithError(err).Error("failed to save uploaded image")
		apierr.Write(w, apierr.New(apierr.Internal, "failed to save image"))
		return
	}

	msg := models.ClipboardMessage{
		Entry:     models.ClipboardRecord{ID: id, Source: deviceID, ImageURL: url},
		Timestamp: Now().Unix(),
	}
	if _, err := s.state.AddEntry(msg); err != nil {
		log.WithError(err).Error("failed to index uploaded image")
		apierr.Write(w, apierr.New(apierr.Internal, "failed to index image"))
		return
	}

	w.Write([]byte(url))
}

func firstPart(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, nil, err
		}
		return f, headers[0], nil
	}
	return nil, nil, io.EOF
}
