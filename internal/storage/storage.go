// Package storage uploads media to object storage and returns public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	FolderVendorLogos     = "vendors/logos"
	FolderOfferImages     = "offers/images"
	FolderOfferFeatured   = "offers/featured"
	FolderCategoryIcons   = "categories/icons"
	FolderCategoryImages  = "categories/images"
	defaultObjectName     = "file"
	immutableCacheControl = "public,max-age=31536000"
)

// File is an uploaded form file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Uploader interface {
	Upload(ctx context.Context, folder string, file File) (string, error)
}

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	multiUnderscore = regexp.MustCompile(`_+`)
)

// SafeName keeps the extension and a readable stem of the client file name.
func SafeName(name string) string {
	s := strings.TrimSpace(path.Base(strings.ReplaceAll(name, `\`, "/")))
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_.")
	if s == "" {
		return defaultObjectName
	}
	if len(s) > 100 {
		s = s[len(s)-100:]
	}
	return s
}

// ObjectName is folder/<uuid>-<safe name>, unique per upload.
func ObjectName(folder, original string) string {
	return fmt.Sprintf("%s/%s-%s", strings.Trim(folder, "/"), uuid.NewString(), SafeName(original))
}

// PublicURL joins the public base URL, bucket and object name.
func PublicURL(baseURL, bucket, object string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, object)
}
