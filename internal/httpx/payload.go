package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/wire"
)

// Payload is a request body reduced to loose field values plus any uploaded
// files, so JSON and multipart requests share one decode path.
type Payload struct {
	Fields map[string]any
	Files  map[string]storage.File
}

// Decode maps the loose fields onto a typed request struct.
func (p *Payload) Decode(out any) error {
	if err := wire.Decode(p.Fields, out); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

func (p *Payload) File(field string) (storage.File, bool) {
	f, ok := p.Files[field]
	return f, ok
}

// ReadPayload reads a JSON object or a multipart form. Only the named file
// fields are read; each is capped at maxBytes.
func ReadPayload(w http.ResponseWriter, r *http.Request, maxBytes int64, fileFields ...string) (*Payload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(w, r, maxBytes, fileFields)
	}
	return readJSONObject(w, r, maxBytes)
}

func readJSONObject(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Payload, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return nil, apperr.Validation("request body too large")
	}
	fields := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, apperr.Validation("invalid json")
		}
	}
	return &Payload{Fields: fields, Files: map[string]storage.File{}}, nil
}

func readMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64, fileFields []string) (*Payload, error) {
	// the form may carry several files, each up to maxBytes
	limit := maxBytes * int64(len(fileFields)+1)
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Validation("request body too large")
		}
		return nil, apperr.Validation("invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	fields := make(map[string]any, len(r.MultipartForm.Value))
	for key, values := range r.MultipartForm.Value {
		name := strings.TrimSuffix(key, "[]")
		if len(values) == 1 && !strings.HasSuffix(key, "[]") {
			fields[name] = values[0]
			continue
		}
		if existing, ok := fields[name].([]string); ok {
			values = append(existing, values...)
		}
		fields[name] = values
	}

	files := make(map[string]storage.File)
	for _, field := range fileFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		file, err := readFile(headers[0], maxBytes)
		if err != nil {
			return nil, err
		}
		files[field] = file
	}

	return &Payload{Fields: fields, Files: files}, nil
}

func readFile(header *multipart.FileHeader, maxBytes int64) (storage.File, error) {
	if header.Size > maxBytes {
		return storage.File{}, apperr.Fields("file too large", map[string]string{header.Filename: fmt.Sprintf("max %d bytes", maxBytes)})
	}
	f, err := header.Open()
	if err != nil {
		return storage.File{}, apperr.Validation("unreadable file %s", header.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return storage.File{}, apperr.Validation("unreadable file %s", header.Filename)
	}
	if int64(len(data)) > maxBytes {
		return storage.File{}, apperr.Fields("file too large", map[string]string{header.Filename: fmt.Sprintf("max %d bytes", maxBytes)})
	}

	// browsers often send application/octet-stream for images
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return storage.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// BulkItem is one entry of a bulk update body.
type BulkItem struct {
	ID   wire.ID        `json:"id"`
	Data map[string]any `json:"data"`
}

func ReadBulk(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]BulkItem, error) {
	var items []BulkItem
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(&items); err != nil {
		return nil, apperr.Validation("body must be an array of {id, data}")
	}
	if len(items) == 0 {
		return nil, apperr.Validation("bulk update needs at least one item")
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, apperr.Fields("validation error", map[string]string{fmt.Sprintf("[%d].id", i): "required"})
		}
		if item.Data == nil {
			items[i].Data = map[string]any{}
		}
	}
	return items, nil
}
