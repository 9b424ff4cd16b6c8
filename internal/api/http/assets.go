package http

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tka/internal/storage"
)

var assetKinds = map[string]bool{"logo": true, "questions": true}

// POST /admin/assets  multipart "file" plus "kind" (logo|questions)
func UploadAssetHandler(bs storage.BlobStore, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		kind := r.FormValue("kind")
		if !assetKinds[kind] {
			http.Error(w, "kind must be logo or questions", http.StatusBadRequest)
			return
		}
		br := bufio.NewReaderSize(f, 512)
		head, _ := br.Peek(512)
		key, err := storage.ImageKey(kind, http.DetectContentType(head))
		if err != nil {
			fail(w, err)
			return
		}
		key, err = bs.Put(r.Context(), key, br)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": bs.URL(key)})
	}
}

// GET /assets/*  serves an uploaded image
func GetAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrBadKey) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", storage.ContentTypeOf(key))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = io.Copy(w, rc)
	}
}
