package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/service"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// HTTPHandler exposes the read-only surface: health plus scrim lookups for
// dashboards and the gateway's slash-command autocompletion.
type HTTPHandler struct {
	service service.ScrimService
	log     *logger.Logger
}

func NewHTTPHandler(svc service.ScrimService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: svc, log: log}
}

func (h *HTTPHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/api/scrims/active", h.getActiveScrim).Methods(http.MethodGet)
	router.HandleFunc("/api/scrims/{id}", h.getScrim).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog", h.getCatalog).Methods(http.MethodGet)
	return router
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) getScrim(w http.ResponseWriter, r *http.Request) {
	scrimID := mux.Vars(r)["id"]

	scrim, err := h.service.GetScrim(r.Context(), scrimID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scrimResponse(scrim))
}

func (h *HTTPHandler) getActiveScrim(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "userId query parameter is required"))
		return
	}

	scrim, err := h.service.GetActiveScrim(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if scrim == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": scrimResponse(scrim)})
}

func (h *HTTPHandler) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"maps":    models.Maps,
		"ranks":   models.Ranks,
		"servers": models.Servers,
		"formats": []string{string(models.BestOfOne), string(models.BestOfThree)},
	})
}

type scrimView struct {
	ScrimID       string   `json:"scrimId"`
	RequesterID   string   `json:"requesterId"`
	CounterpartID string   `json:"counterpartId,omitempty"`
	TeamName      string   `json:"teamName"`
	MatchDate     string   `json:"matchDate"`
	Format        string   `json:"format"`
	Maps          []string `json:"maps"`
	Ranks         []string `json:"ranks"`
	Server        string   `json:"server"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt"`
}

func scrimResponse(scrim *models.Scrim) scrimView {
	return scrimView{
		ScrimID:       scrim.ScrimID,
		RequesterID:   scrim.RequesterID,
		CounterpartID: scrim.CounterpartID,
		TeamName:      scrim.TeamName,
		MatchDate:     scrim.MatchDate,
		Format:        string(scrim.Format),
		Maps:          scrim.Maps,
		Ranks:         scrim.Ranks,
		Server:        scrim.Server,
		Status:        scrim.Status.String(),
		CreatedAt:     scrim.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, apperrors.ToHTTPStatus(appErr), map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	h.log.Error("unhandled error in http handler", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    apperrors.CodeInternalServer,
		"message": "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
