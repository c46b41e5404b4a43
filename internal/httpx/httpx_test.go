package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/wire"
)

type vendorForm struct {
	Name       *string   `json:"name"`
	Links      *[]string `json:"links"`
	Categories *[]string `json:"categories"`
	Locations  []struct {
		City string `json:"city"`
	} `json:"locations"`
}

func multipartRequest(t *testing.T, fields map[string][]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/vendor", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadPayloadMultipart(t *testing.T) {
	req := multipartRequest(t, map[string][]string{
		"name":       {"Vida"},
		"links":      {"https://x.com, https://y.com"},
		"categories": {"c1", "c2"},
		"locations":  {`[{"city":"Manama"},{"city":"Riffa"}]`},
	}, "logo", "logo.png", []byte("\x89PNG\r\n\x1a\n"))

	p, err := ReadPayload(httptest.NewRecorder(), req, 1<<20, "logo")
	require.NoError(t, err)

	var form vendorForm
	require.NoError(t, p.Decode(&form))
	assert.Equal(t, "Vida", *form.Name)
	assert.Equal(t, []string{"https://x.com", "https://y.com"}, *form.Links)
	assert.Equal(t, []string{"c1", "c2"}, *form.Categories)
	require.Len(t, form.Locations, 2)
	assert.Equal(t, "Riffa", form.Locations[1].City)

	logo, ok := p.File("logo")
	require.True(t, ok)
	assert.Equal(t, "logo.png", logo.Name)
	assert.Equal(t, "image/png", logo.ContentType)
	assert.NotEmpty(t, logo.Data)
}

func TestReadPayloadRejectsLargeFile(t *testing.T) {
	req := multipartRequest(t, map[string][]string{"name": {"Vida"}}, "logo", "big.png", bytes.Repeat([]byte("a"), 2048))
	_, err := ReadPayload(httptest.NewRecorder(), req, 1024, "logo")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReadPayloadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/vendor/v1", strings.NewReader(`{"name":"Vida","links":"https://x.com","categories":[]}`))
	req.Header.Set("Content-Type", "application/json")

	p, err := ReadPayload(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)

	var form vendorForm
	require.NoError(t, p.Decode(&form))
	assert.Equal(t, []string{"https://x.com"}, *form.Links)
	require.NotNil(t, form.Categories)
	assert.Empty(t, *form.Categories)
	assert.Empty(t, p.Files)
}

func TestReadPayloadInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/vendor/v1", strings.NewReader(`{"name":`))
	_, err := ReadPayload(httptest.NewRecorder(), req, 1<<20)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReadBulk(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/offer/bulk", strings.NewReader(
		`[{"id":"o1","data":{"isActive":false}},{"id":{"$oid":"o2"},"data":{"isFeatured":true}}]`))
	items, err := ReadBulk(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, wire.ID("o2"), items[1].ID)
	assert.Equal(t, false, items[0].Data["isActive"])

	req = httptest.NewRequest(http.MethodPatch, "/offer/bulk", strings.NewReader(`[{"data":{}}]`))
	_, err = ReadBulk(httptest.NewRecorder(), req, 1<<20)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("vendor %s", "v1"), http.StatusNotFound},
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Fields("validation error", map[string]string{"name": "required"}), http.StatusBadRequest},
		{fmt.Errorf("login: %w", apperr.ErrUnauthorized), http.StatusUnauthorized},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.Upstream("storage upload", errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestWriteServiceErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, errors.New("mongo: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteServiceError(rec, apperr.Fields("validation error", map[string]string{"name": "required"}))
	assert.JSONEq(t, `{"error":"validation error","details":{"name":"required"}}`, rec.Body.String())
}

func TestQueryBool(t *testing.T) {
	v, err := QueryBool(url.Values{"isActive": {"true"}}, "isActive")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)

	v, err = QueryBool(url.Values{}, "isActive")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = QueryBool(url.Values{"isActive": {"maybe"}}, "isActive")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
