// Package api exposes editor sessions and stateless validation over HTTP JSON.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"signalconfig/internal/domain"
	"signalconfig/internal/draftstore"
	"signalconfig/internal/editor"
	"signalconfig/internal/preview"
	"signalconfig/internal/storage"
	"signalconfig/internal/validation"
)

// Handler serves the editor API under a path prefix.
// Params: editor registry, storage for draft listing, body limit, and logger.
// Returns: HTTP handler with method-scoped routes.
type Handler struct {
	registry    *editor.Registry
	storage     storage.Storage
	maxBodySize int64
	logger      *slog.Logger
	mux         *http.ServeMux
}

type openRequest struct {
	Resume string `json:"resume"`
}

type autoSaveRequest struct {
	Enabled *bool `json:"enabled"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type previewResponse struct {
	Recipient string          `json:"recipient,omitempty"`
	Name      string          `json:"name,omitempty"`
	Values    preview.Data    `json:"values"`
	Blocks    []preview.Block `json:"blocks"`
}

type validateResponse struct {
	validation.State
	ShowErrors  bool              `json:"showErrors"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message,omitempty"`
	Shown   bool   `json:"shown"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the API handler.
// Params: registry, storage backend, prefix such as "/api", max request body size, and logger.
// Returns: configured handler.
func NewHandler(registry *editor.Registry, backend storage.Storage, prefix string, maxBodySize int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.TrimRight(prefix, "/")
	h := &Handler{
		registry:    registry,
		storage:     backend,
		maxBodySize: maxBodySize,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("GET "+prefix+"/drafts", h.listDrafts)
	h.mux.HandleFunc("POST "+prefix+"/editors", h.openEditor)
	h.mux.HandleFunc("GET "+prefix+"/editors/{id}", h.withEditor(h.snapshot))
	h.mux.HandleFunc("PATCH "+prefix+"/editors/{id}", h.withEditor(h.patch))
	h.mux.HandleFunc("DELETE "+prefix+"/editors/{id}", h.closeEditor)
	h.mux.HandleFunc("POST "+prefix+"/editors/{id}/save", h.withEditor(h.save))
	h.mux.HandleFunc("POST "+prefix+"/editors/{id}/launch", h.withEditor(h.launch))
	h.mux.HandleFunc("POST "+prefix+"/editors/{id}/reset", h.withEditor(h.reset))
	h.mux.HandleFunc("POST "+prefix+"/editors/{id}/autosave", h.withEditor(h.autoSave))
	h.mux.HandleFunc("GET "+prefix+"/editors/{id}/preview", h.withEditor(h.preview))
	h.mux.HandleFunc("GET "+prefix+"/editors/{id}/fields/{field}/error", h.withEditor(h.fieldError))
	h.mux.HandleFunc("GET "+prefix+"/editors/{id}/sections/{section}", h.withEditor(h.sectionStatus))
	h.mux.HandleFunc("POST "+prefix+"/validate/name", h.validateName)
	h.mux.HandleFunc("POST "+prefix+"/validate", h.validate)
	return h
}

// ServeHTTP dispatches one request.
// Params: response writer and request.
// Returns: none; the matched route writes the response.
func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	h.mux.ServeHTTP(writer, request)
}

// listDrafts returns every stored draft that has a signal name.
// Params: response writer and request.
// Returns: none; 503 when storage cannot be read.
func (h *Handler) listDrafts(writer http.ResponseWriter, request *http.Request) {
	drafts, err := draftstore.ListDrafts(request.Context(), h.storage)
	if err != nil {
		h.logger.Error("list drafts failed", "error", err.Error())
		writeError(writer, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(writer, http.StatusOK, drafts)
}

// openEditor opens a fresh editor or resumes the key given in the body.
// Params: response writer and request with optional {"resume"} body.
// Returns: none; 201 with the snapshot, 422 when the draft cannot be resumed.
func (h *Handler) openEditor(writer http.ResponseWriter, request *http.Request) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	var req openRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(writer, http.StatusBadRequest, err)
			return
		}
	}

	ed, err := h.registry.Open(request.Context(), strings.TrimSpace(req.Resume))
	if err != nil {
		writeError(writer, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(writer, http.StatusCreated, ed.Snapshot())
}

// closeEditor closes one editor; pending autosave is dropped.
// Params: response writer and request with editor id.
// Returns: none; 204 or 404.
func (h *Handler) closeEditor(writer http.ResponseWriter, request *http.Request) {
	if err := h.registry.Close(request.PathValue("id")); err != nil {
		writeError(writer, http.StatusNotFound, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

// snapshot writes the editor read model.
// Params: response writer, request, and resolved editor.
// Returns: none.
func (h *Handler) snapshot(writer http.ResponseWriter, _ *http.Request, ed *editor.Editor) {
	writeJSON(writer, http.StatusOK, ed.Snapshot())
}

// patch merges a partial update into the draft.
// Params: response writer, request with patch body, and resolved editor.
// Returns: none; 400 for unknown fields or malformed JSON.
func (h *Handler) patch(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	patch, err := domain.DecodePatch(body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}
	if err := ed.Update(request.Context(), patch); err != nil {
		writeEditorError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, ed.Snapshot())
}

// save writes the draft immediately.
// Params: response writer, request, and resolved editor.
// Returns: none; 503 when storage rejects the write.
func (h *Handler) save(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	if err := ed.Save(request.Context()); err != nil {
		writeEditorError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, ed.Snapshot())
}

// launch reveals errors and launches a valid draft.
// Params: response writer, request, and resolved editor.
// Returns: none; 422 with the validation state when the draft is invalid.
func (h *Handler) launch(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	result, err := ed.Launch(request.Context())
	if err != nil {
		writeEditorError(writer, err)
		return
	}
	if !result.Launched {
		writeJSON(writer, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(writer, http.StatusOK, result)
}

// reset restores the default draft.
// Params: response writer, request, and resolved editor.
// Returns: none.
func (h *Handler) reset(writer http.ResponseWriter, _ *http.Request, ed *editor.Editor) {
	if err := ed.Reset(); err != nil {
		writeEditorError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, ed.Snapshot())
}

// autoSave toggles automatic saving for one editor.
// Params: response writer, request with {"enabled"} body, and resolved editor.
// Returns: none; 400 when enabled is missing.
func (h *Handler) autoSave(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	var req autoSaveRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Enabled == nil {
		writeError(writer, http.StatusBadRequest, errors.New("body must be {\"enabled\": true|false}"))
		return
	}
	ed.SetAutoSave(*req.Enabled)
	writeJSON(writer, http.StatusOK, ed.Snapshot())
}

// preview renders content blocks for the recipient query parameter.
// Params: response writer, request, and resolved editor.
// Returns: none; 422 when a block template fails.
func (h *Handler) preview(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	recipient := strings.TrimSpace(request.URL.Query().Get("recipient"))
	blocks, values, err := ed.Preview(recipient)
	if err != nil {
		writeError(writer, http.StatusUnprocessableEntity, err)
		return
	}
	resp := previewResponse{Recipient: recipient, Values: values, Blocks: blocks}
	if recipient != "" {
		resp.Name = draftstore.FromContext(request.Context()).RecipientName(recipient)
	}
	writeJSON(writer, http.StatusOK, resp)
}

// fieldError reports the revealed error for one field.
// Params: response writer, request with field name, and resolved editor.
// Returns: none; shown is false before a launch attempt.
func (h *Handler) fieldError(writer http.ResponseWriter, request *http.Request, ed *editor.Editor) {
	field := request.PathValue("field")
	message, shown := ed.FieldError(field)
	writeJSON(writer, http.StatusOK, fieldErrorResponse{Field: field, Message: message, Shown: shown})
}

// validateName checks a candidate signal name.
// Params: response writer and request with {"name"} body.
// Returns: none.
func (h *Handler) validateName(writer http.ResponseWriter, request *http.Request) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	var req nameRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}
	writeJSON(writer, http.StatusOK, validation.ValidateSignalName(req.Name))
}

// validate evaluates a posted record as one launch attempt of a throwaway session.
// Params: response writer and request; ?rules=draft selects the store rule set,
// ?attempt=false keeps field errors hidden.
// Returns: none; section state plus revealed field errors.
func (h *Handler) validate(writer http.ResponseWriter, request *http.Request) {
	body, ok := h.readBody(writer, request)
	if !ok {
		return
	}
	data, err := domain.DecodeSignal(body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}
	rules := validation.BasicRules
	if request.URL.Query().Get("rules") == "draft" {
		rules = validation.DraftRules
	}

	session := validation.NewDraftSession(data, rules)
	if request.URL.Query().Get("attempt") != "false" {
		session.AttemptLaunch()
	}
	state := session.State()
	fieldErrors := make(map[string]string)
	for _, problem := range state.Errors() {
		if message, shown := session.FieldError(problem.Field); shown {
			fieldErrors[problem.Field] = message
		}
	}
	writeJSON(writer, http.StatusOK, validateResponse{
		State:       state,
		ShowErrors:  session.ShowErrors(),
		FieldErrors: fieldErrors,
	})
}

// sectionStatus reports progress of one section of the editor's draft.
// Params: response writer and request carrying the draft store in its context.
// Returns: none; unknown sections report incomplete.
func (h *Handler) sectionStatus(writer http.ResponseWriter, request *http.Request, _ *editor.Editor) {
	store := draftstore.FromContext(request.Context())
	writeJSON(writer, http.StatusOK, store.SectionStatus(domain.Section(request.PathValue("section"))))
}

// withEditor resolves the {id} path value and exposes the editor's store through the request context.
// Params: editor-scoped handler.
// Returns: handler writing 404 for unknown ids.
func (h *Handler) withEditor(next func(http.ResponseWriter, *http.Request, *editor.Editor)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ed, err := h.registry.Get(request.PathValue("id"))
		if err != nil {
			writeError(writer, http.StatusNotFound, err)
			return
		}
		ctx := draftstore.WithStore(request.Context(), ed.Store())
		next(writer, request.WithContext(ctx), ed)
	}
}

// readBody reads the request body up to the configured limit.
// Params: response writer and request.
// Returns: body and true, or false after writing 400.
func (h *Handler) readBody(writer http.ResponseWriter, request *http.Request) ([]byte, bool) {
	request.Body = http.MaxBytesReader(writer, request.Body, h.maxBodySize)
	defer request.Body.Close()
	body, err := io.ReadAll(request.Body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return nil, false
	}
	return body, true
}

// writeEditorError maps editor failures to status codes.
// Params: response writer and editor error.
// Returns: none; 409 for a closed editor, 503 otherwise.
func writeEditorError(writer http.ResponseWriter, err error) {
	if editor.IsClosed(err) {
		writeError(writer, http.StatusConflict, err)
		return
	}
	writeError(writer, http.StatusServiceUnavailable, err)
}

// writeError writes {"error": message}.
// Params: response writer, status code, and error.
// Returns: none.
func writeError(writer http.ResponseWriter, status int, err error) {
	writeJSON(writer, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes body with status.
// Params: response writer, status code, and response value.
// Returns: none; encode errors are dropped once headers are sent.
func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}
