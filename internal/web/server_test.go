package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
	"studio-ai/internal/resultview"
	"studio-ai/internal/studio"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

type fakeGenerator struct {
	text     string
	image    *imageinput.EncodedImage
	err      error
	calls    int
	settings domain.Settings
}

func (f *fakeGenerator) Analyze(context.Context, imageinput.EncodedImage) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeGenerator) Generate(_ context.Context, s domain.Settings) (*imageinput.EncodedImage, error) {
	f.calls++
	f.settings = s
	return f.image, f.err
}

type fixture struct {
	gen     *fakeGenerator
	session *studio.Session
	server  *Server
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := &fakeGenerator{}
	session := studio.NewSession(studio.Options{
		Generator: gen,
		Now:       func() time.Time { return time.UnixMilli(1700000000123) },
	})
	srv := New(Options{Session: session, Location: time.UTC, MaxUploadBytes: 1 << 20})
	t.Cleanup(srv.Close)
	return &fixture{gen: gen, session: session, server: srv, handler: srv.Handler()}
}

func (f *fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, stateView) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var view stateView
	if strings.HasPrefix(rec.Header().Get("content-type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &view)
	}
	return rec, view
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	return req
}

func TestState_Defaults(t *testing.T) {
	f := newFixture(t)
	rec, view := f.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bright", view.Settings.Mood)
	assert.Equal(t, "1:1", view.Settings.AspectRatio)
	assert.Equal(t, "empty", string(view.Result.View))
	assert.Equal(t, resultview.EmptyTitle, view.Result.Title)
	assert.Equal(t, resultview.EmptySubtitle, view.Result.Subtitle)
	assert.Nil(t, view.Settings.ProductImage)
}

func TestNav(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nav", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var nav navView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nav))
	assert.Equal(t, "Studio AI", nav.Title)
	require.Len(t, nav.Items, 4)
	assert.True(t, nav.Items[1].Active)
	assert.Len(t, nav.AspectRatios, 4)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string][]byte{"image": pngHeader})
	req := httptest.NewRequest(http.MethodPut, "/api/images/product", body)
	req.Header.Set("content-type", ct)
	rec, view := f.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, view.Settings.ProductImage)
	assert.Equal(t, "/api/images/product?rev=1", view.Settings.ProductImage.URL)
	assert.Equal(t, "image/png", view.Settings.ProductImage.MimeType)
	assert.Equal(t, len(pngHeader), view.Settings.ProductImage.Bytes)
	assert.Nil(t, view.Settings.ModelImage)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, view.Settings.ProductImage.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("content-type"))
	assert.Equal(t, "no-cache", rec.Header().Get("cache-control"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())
}

func TestUploadImage_RevisionTracksSlot(t *testing.T) {
	f := newFixture(t)
	img := imageinput.New(pngHeader, "image/png")
	require.NoError(t, f.session.SetImage(domain.SlotProduct, &img))
	f.session.SetBackground("marble")

	_, view := f.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.NotNil(t, view.Settings.ProductImage)
	assert.Equal(t, "/api/images/product?rev=1", view.Settings.ProductImage.URL, "unrelated changes keep the url")

	require.NoError(t, f.session.SetImage(domain.SlotProduct, &img))
	_, view = f.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, "/api/images/product?rev=3", view.Settings.ProductImage.URL)
}

func TestImage_EmptySlot(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/logo", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no image")
}

func TestUploadImage_DataURI(t *testing.T) {
	f := newFixture(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	rec, view := f.do(t, jsonRequest(http.MethodPut, "/api/images/model", `{"image":"`+uri+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, view.Settings.ModelImage)
	assert.Equal(t, "image/png", view.Settings.ModelImage.MimeType)

	st := f.session.Snapshot()
	require.NotNil(t, st.Settings.ModelImage)
	assert.Equal(t, pngHeader, st.Settings.ModelImage.Data)

	rec, _ = f.do(t, jsonRequest(http.MethodPut, "/api/images/model", `{"image":"data:text/plain;base64,aGVsbG8="}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, studio.MsgReadFailed, f.session.Snapshot().Error)

	rec, _ = f.do(t, jsonRequest(http.MethodPut, "/api/images/model", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing image")
}

func TestUploadImage_TooLarge(t *testing.T) {
	f := newFixture(t)
	prev := imageinput.New(pngHeader, "image/png")
	require.NoError(t, f.session.SetImage(domain.SlotProduct, &prev))

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 3<<20)...)
	body, ct := multipartBody(t, map[string][]byte{"image": big})
	req := httptest.NewRequest(http.MethodPut, "/api/images/product", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), studio.MsgReadFailed)
	st := f.session.Snapshot()
	assert.Equal(t, studio.MsgReadFailed, st.Error)
	require.NotNil(t, st.Settings.ProductImage)
	assert.Equal(t, pngHeader, st.Settings.ProductImage.Data)
}

func TestUploadImages_TooLarge(t *testing.T) {
	f := newFixture(t)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 5<<20)...)
	body, ct := multipartBody(t, map[string][]byte{"product": big})
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, studio.MsgReadFailed, f.session.Snapshot().Error)
}

func TestUploadImage_GoodUploadClearsReadFailure(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string][]byte{"image": []byte("not an image")})
	req := httptest.NewRequest(http.MethodPut, "/api/images/product", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, studio.MsgReadFailed, f.session.Snapshot().Error)

	body, ct = multipartBody(t, map[string][]byte{"image": pngHeader})
	req = httptest.NewRequest(http.MethodPut, "/api/images/product", body)
	req.Header.Set("content-type", ct)
	rec, view := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, view.Error)

	f.session.SetError(studio.MsgReadFailed)
	body, ct = multipartBody(t, map[string][]byte{"logo": pngHeader})
	req = httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("content-type", ct)
	rec, view = f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, view.Error)
}

func TestUploadImage_RejectsTextKeepsPrevious(t *testing.T) {
	f := newFixture(t)
	prev := imageinput.New([]byte("old"), "image/png")
	require.NoError(t, f.session.SetImage(domain.SlotLogo, &prev))

	body, ct := multipartBody(t, map[string][]byte{"image": []byte("just some text")})
	req := httptest.NewRequest(http.MethodPut, "/api/images/logo", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	st := f.session.Snapshot()
	assert.Equal(t, studio.MsgReadFailed, st.Error)
	require.NotNil(t, st.Settings.LogoImage)
	assert.Equal(t, "old", string(st.Settings.LogoImage.Data))
}

func TestUploadImage_UnknownSlot(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string][]byte{"image": pngHeader})
	req := httptest.NewRequest(http.MethodPut, "/api/images/banner", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadImages_Many(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string][]byte{"product": pngHeader, "logo": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("content-type", ct)
	rec, view := f.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, view.Settings.ProductImage)
	require.NotNil(t, view.Settings.LogoImage)
	assert.Nil(t, view.Settings.ModelImage)
	assert.Equal(t, view.Settings.ProductImage.URL[len("/api/images/product"):], view.Settings.LogoImage.URL[len("/api/images/logo"):],
		"slots filled together share a revision")
}

func TestUploadImages_OneBadFileChangesNothing(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string][]byte{"product": pngHeader, "model": []byte("nope")})
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("content-type", ct)
	rec, _ := f.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.session.Snapshot().Settings.ProductImage)
}

func TestRemoveImage(t *testing.T) {
	f := newFixture(t)
	img := imageinput.New(pngHeader, "image/png")
	require.NoError(t, f.session.SetImage(domain.SlotModel, &img))

	rec, view := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/images/model", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, view.Settings.ModelImage)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	rec, view := f.do(t, jsonRequest(http.MethodPut, "/api/settings",
		`{"backgroundPrompt":"dark wood","mood":"dark","aspectRatio":"16:9"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark wood", view.Settings.BackgroundPrompt)
	assert.Equal(t, "dark", view.Settings.Mood)
	assert.Equal(t, "16:9", view.Settings.AspectRatio)

	rec, _ = f.do(t, jsonRequest(http.MethodPut, "/api/settings", `{"backgroundPrompt":"x","mood":"neon"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "dark wood", f.session.Snapshot().Settings.BackgroundPrompt, "invalid update is applied all-or-nothing")

	rec, view = f.do(t, jsonRequest(http.MethodPut, "/api/settings", `{"aspectRatio":"9:16"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", view.Settings.Mood)
	assert.Equal(t, "9:16", view.Settings.AspectRatio)
}

func TestAnalyzeThenGenerate(t *testing.T) {
	f := newFixture(t)
	img := imageinput.New(pngHeader, "image/png")
	require.NoError(t, f.session.SetImage(domain.SlotProduct, &img))

	f.gen.text = "Minimalist leather wallet on dark wood"
	rec, view := f.do(t, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Minimalist leather wallet on dark wood", view.Settings.BackgroundPrompt)

	out := imageinput.New([]byte("ABC123"), "image/png")
	f.gen.image = &out
	rec, view = f.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "result", string(view.Result.View))
	assert.Equal(t, "/api/result/image?t=1700000000123", view.Result.ImageURL)
	assert.Equal(t, "Hasil Terkini - 22:13:20", view.Result.Caption)
	assert.Empty(t, view.Error)
	assert.False(t, view.Generating)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, view.Result.ImageURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", rec.Body.String())
	assert.Empty(t, rec.Header().Get("content-disposition"))

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("content-type"))
	assert.Contains(t, rec.Header().Get("content-disposition"), "product-shot-1700000000123.png")

	rec, view = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "empty", string(view.Result.View))

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result/download", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result/image", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerate_StatusCodes(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		rec, view := f.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, studio.MsgProductRequired, view.Error)
		assert.Zero(t, f.gen.calls)
	})

	t.Run("empty result", func(t *testing.T) {
		f := newFixture(t)
		img := imageinput.New(pngHeader, "image/png")
		require.NoError(t, f.session.SetImage(domain.SlotProduct, &img))
		f.session.SetBackground("studio")

		rec, view := f.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, studio.MsgEmptyResult, view.Error)
	})

	t.Run("remote failure", func(t *testing.T) {
		f := newFixture(t)
		img := imageinput.New(pngHeader, "image/png")
		require.NoError(t, f.session.SetImage(domain.SlotProduct, &img))
		f.session.SetBackground("studio")
		f.gen.err = errors.New("503 from upstream")

		rec, view := f.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, studio.MsgGenerateFailed, view.Error)
		assert.NotContains(t, rec.Body.String(), "503 from upstream")
	})
}

func TestUnknownAPIRoute(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestIndexServed(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buat Foto Produk")
}

func TestWebSocket_PushesState(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readView := func() stateView {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var v stateView
		require.NoError(t, conn.ReadJSON(&v))
		return v
	}

	initial := readView()
	assert.Equal(t, uint64(0), initial.Version)

	f.session.SetBackground("marble counter")
	pushed := readView()
	assert.Equal(t, uint64(1), pushed.Version)
	assert.Equal(t, "marble counter", pushed.Settings.BackgroundPrompt)
}
