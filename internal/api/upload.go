package api

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Upload is an image file to send as a multipart part.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether there is nothing to upload.
func (u Upload) Empty() bool {
	return len(u.Data) == 0
}

// OpenUpload reads an image from disk.
func OpenUpload(path string) (Upload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Upload{}, fmt.Errorf("image path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, err
	}
	return Upload{Filename: filepath.Base(path), Data: data}, nil
}

func (u Upload) contentType() string {
	if u.ContentType != "" {
		return u.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(u.Filename))); ct != "" {
		return ct
	}
	return http.DetectContentType(u.Data)
}

type multipartBody struct {
	data        []byte
	contentType string
}

type formField struct {
	name  string
	value string
}

func newMultipartBody(fileField string, file Upload, fields ...formField) (*multipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
	header.Set("Content-Type", file.contentType())
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &multipartBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}
