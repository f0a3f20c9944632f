package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
	"studio-ai/internal/studio"
)

// multipartOverhead leaves room for boundaries and headers on top of the
// image size limit.
const multipartOverhead = 1 << 20

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, http.StatusOK)
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newNavView())
}

// handleUploadImage replaces one slot, either from the multipart field
// "image" or from a JSON body {"image": "data:..."} as produced by a browser
// FileReader.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(mux.Vars(r)["slot"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}

	var img imageinput.EncodedImage
	if isJSON(r) {
		img, err = s.readDataURIUpload(w, r)
	} else {
		img, err = s.readMultipartUpload(w, r)
	}
	var badReq badRequestError
	switch {
	case err == nil:
	case errors.As(err, &badReq):
		writeJSON(w, http.StatusBadRequest, apiError{Error: string(badReq)})
		return
	default:
		s.rejectUpload(w, err, "slot", slot)
		return
	}

	if err := s.session.SetImage(slot, &img); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	s.logger.Info("image uploaded", "slot", slot, "mime", img.MimeType, "bytes", len(img.Data))
	s.writeState(w, http.StatusOK)
}

// badRequestError is a malformed request rather than an unreadable image;
// it does not touch the session error.
type badRequestError string

func (e badRequestError) Error() string { return string(e) }

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

func (s *Server) readMultipartUpload(w http.ResponseWriter, r *http.Request) (imageinput.EncodedImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload + multipartOverhead); err != nil {
		if isTooLarge(err) {
			return imageinput.EncodedImage{}, err
		}
		return imageinput.EncodedImage{}, badRequestError("invalid multipart form")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return imageinput.EncodedImage{}, badRequestError("missing image")
	}
	defer file.Close()

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	select {
	case res := <-imageinput.ReadAsync(ctx, file, header.Header.Get("Content-Type"), s.maxUpload):
		return res.Image, res.Err
	case <-ctx.Done():
		return imageinput.EncodedImage{}, ctx.Err()
	}
}

type dataURIRequest struct {
	Image string `json:"image"`
}

func (s *Server) readDataURIUpload(w http.ResponseWriter, r *http.Request) (imageinput.EncodedImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload/3*4+multipartOverhead)
	var req dataURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isTooLarge(err) {
			return imageinput.EncodedImage{}, err
		}
		return imageinput.EncodedImage{}, badRequestError("invalid json")
	}
	if req.Image == "" {
		return imageinput.EncodedImage{}, badRequestError("missing image")
	}
	return imageinput.ReadDataURI(req.Image, s.maxUpload)
}

// handleUploadImages fills any of the slots at once; each multipart field is
// named after its slot. Nothing changes unless every file reads cleanly.
func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	limit := int64(len(domain.Slots()))*s.maxUpload + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		if isTooLarge(err) {
			s.rejectUpload(w, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	var sources []imageinput.Source
	for _, slot := range domain.Slots() {
		headers := r.MultipartForm.File[string(slot)]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		sources = append(sources, imageinput.Source{
			Name:     string(slot),
			MimeType: fh.Header.Get("Content-Type"),
			Open:     func() (io.ReadCloser, error) { return openPart(fh) },
		})
	}
	if len(sources) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing image"})
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	images, err := imageinput.ReadMany(ctx, sources, s.maxUpload)
	if err != nil {
		s.rejectUpload(w, err)
		return
	}

	updates := make([]studio.ImageUpdate, len(sources))
	for i, src := range sources {
		updates[i] = studio.ImageUpdate{Slot: domain.Slot(src.Name), Image: &images[i]}
	}
	if err := s.session.SetImages(updates...); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	s.logger.Info("images uploaded", "count", len(updates))
	s.writeState(w, http.StatusOK)
}

func openPart(fh *multipart.FileHeader) (io.ReadCloser, error) {
	return fh.Open()
}

// rejectUpload records the read failure on the session so every client
// shows it, not only the uploader.
func (s *Server) rejectUpload(w http.ResponseWriter, err error, attrs ...any) {
	s.logger.Warn("image read failed", append(attrs, "err", err)...)
	s.session.SetError(studio.MsgReadFailed)
	writeJSON(w, statusForRead(err), apiError{Error: studio.MsgReadFailed})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, imageinput.ErrTooLarge)
}

func statusForRead(err error) int {
	if isTooLarge(err) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// handleImage serves the current bytes of a slot. State views link here
// with a rev query that changes on every replacement.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(mux.Vars(r)["slot"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	img := s.session.Snapshot().Settings.Image(slot)
	if img == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no image"})
		return
	}
	writeImage(w, img.MimeType, img.Data)
}

func (s *Server) handleResultImage(w http.ResponseWriter, r *http.Request) {
	res := s.session.Snapshot().Result
	if res == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no result"})
		return
	}
	writeImage(w, res.Image.MimeType, res.Image.Data)
}

func writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("content-type", mimeType)
	w.Header().Set("content-length", strconv.Itoa(len(data)))
	w.Header().Set("cache-control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(mux.Vars(r)["slot"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	if err := s.session.SetImage(slot, nil); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	s.writeState(w, http.StatusOK)
}

type settingsRequest struct {
	BackgroundPrompt *string `json:"backgroundPrompt"`
	Mood             *string `json:"mood"`
	AspectRatio      *string `json:"aspectRatio"`
}

// handleSettings applies a partial settings update. All fields are
// validated before any of them is applied.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json"})
		return
	}

	var (
		mood  domain.Mood
		ratio domain.AspectRatio
		err   error
	)
	if req.Mood != nil {
		if mood, err = domain.ParseMood(*req.Mood); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
	}
	if req.AspectRatio != nil {
		if ratio, err = domain.ParseAspectRatio(*req.AspectRatio); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
	}

	s.session.Update(func(st *domain.Settings) {
		if req.BackgroundPrompt != nil {
			st.BackgroundPrompt = *req.BackgroundPrompt
		}
		if req.Mood != nil {
			st.Mood = mood
		}
		if req.AspectRatio != nil {
			st.AspectRatio = ratio
		}
	})
	s.writeState(w, http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	_, err := s.session.Analyze(ctx)
	s.writeState(w, statusForAction(err))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	_, err := s.session.Generate(ctx)
	s.writeState(w, statusForAction(err))
}

// statusForAction maps an action outcome to a status code. The body is the
// state either way; its error field carries the user-facing message.
func statusForAction(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, studio.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, studio.ErrNoImage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	dl, ok := s.session.Download()
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no result"})
		return
	}
	w.Header().Set("content-type", dl.MimeType)
	w.Header().Set("content-length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.session.Dismiss()
	s.writeState(w, http.StatusOK)
}
