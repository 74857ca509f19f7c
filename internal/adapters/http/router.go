// Package httpadapter exposes the tutoring API over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ratatutor/backend/internal/core/ports"
	"github.com/ratatutor/backend/internal/observability/metrics"
)

const userIDHeader = "X-User-Id"

// maxUploadBytes caps attachment uploads at 32 MiB.
const maxUploadBytes = 32 << 20

type Router struct {
	materials  ports.MaterialService
	tutor      ports.TutorService
	generation ports.GenerationService

	service string
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	materials ports.MaterialService,
	tutor ports.TutorService,
	generation ports.GenerationService,
	service string,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		materials:  materials,
		tutor:      tutor,
		generation: generation,
		service:    service,
		metrics:    serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/materials", rt.createMaterial)
	mux.HandleFunc("GET /v1/materials/{material_id}", rt.getMaterial)
	mux.HandleFunc("POST /v1/materials/{material_id}/attachments", rt.uploadAttachment)
	mux.HandleFunc("POST /v1/materials/{material_id}/notes", rt.generateNotes)
	mux.HandleFunc("POST /v1/materials/{material_id}/flashcards", rt.generateFlashcards)
	mux.HandleFunc("POST /v1/materials/{material_id}/quiz", rt.generateQuiz)

	mux.HandleFunc("POST /v1/conversations", rt.startConversation)
	mux.HandleFunc("GET /v1/conversations/{conversation_id}", rt.getConversation)
	mux.HandleFunc("POST /v1/conversations/{conversation_id}/chat", rt.chat)
	mux.HandleFunc("POST /v1/conversations/{conversation_id}/summary", rt.regenerateSummary)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createMaterial(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	material, err := rt.materials.CreateMaterial(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

func (rt *Router) getMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := rt.materials.GetMaterial(r.Context(), r.PathValue("material_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, material)
}

func (rt *Router) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	attachment, err := rt.materials.UploadAttachment(r.Context(), r.PathValue("material_id"), fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAttachmentUpload(rt.service, attachment.Extension())
	}
	writeJSON(w, http.StatusAccepted, attachment)
}

type generateRequest struct {
	Count         int      `json:"count"`
	AttachmentIDs []string `json:"attachment_ids"`
}

func (rt *Router) generateNotes(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	note, err := rt.generation.GenerateNotes(r.Context(), r.PathValue("material_id"), req.AttachmentIDs)
	if rt.metrics != nil {
		rt.metrics.RecordGenerationRun(rt.service, "notes", 1, err, time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (rt *Router) generateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	set, err := rt.generation.GenerateFlashcards(r.Context(), r.PathValue("material_id"), req.Count, req.AttachmentIDs)
	items := 0
	if set != nil {
		items = len(set.Cards)
	}
	if rt.metrics != nil {
		rt.metrics.RecordGenerationRun(rt.service, "flashcards", items, err, time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (rt *Router) generateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	quiz, err := rt.generation.GenerateQuiz(r.Context(), r.PathValue("material_id"), req.Count, req.AttachmentIDs)
	items := 0
	if quiz != nil {
		items = len(quiz.Questions)
	}
	if rt.metrics != nil {
		rt.metrics.RecordGenerationRun(rt.service, "quiz", items, err, time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (rt *Router) startConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		MaterialID string `json:"material_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	conversation, err := rt.tutor.StartOrGetConversation(r.Context(), userID, req.MaterialID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (rt *Router) getConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := rt.tutor.GetConversation(r.Context(), r.PathValue("conversation_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := rt.tutor.Chat(r.Context(), r.PathValue("conversation_id"), req.Message)
	if rt.metrics != nil {
		topic := ""
		usedMaterial := false
		degraded := false
		if result != nil {
			topic = result.Topic
			usedMaterial = result.UsedMaterialText
			degraded = result.Degraded
		}
		rt.metrics.RecordChatTurn(rt.service, topic, usedMaterial, degraded, err, time.Since(start))
		if result != nil {
			rt.metrics.RecordSummaryRefresh(rt.service, result.SummaryRefreshed)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply":             result.Reply,
		"topic":             result.Topic,
		"used_material":     result.UsedMaterialText,
		"degraded":          result.Degraded,
		"summary_refreshed": result.SummaryRefreshed,
		"conversation":      result.Conversation,
	})
}

func (rt *Router) regenerateSummary(w http.ResponseWriter, r *http.Request) {
	refreshed, err := rt.tutor.RegenerateSummary(r.Context(), r.PathValue("conversation_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSummaryRefresh(rt.service, refreshed)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"refreshed": refreshed})
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "header X-User-Id is required"})
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
