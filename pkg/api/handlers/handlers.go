package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sandlotlabs/dugout/pkg/api/middleware"
	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/hub"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/repositories"
)

var roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{1,64}$`)

type CreateRoomRequest struct {
	RoomID string          `json:"roomId,omitempty"`
	Rules  *baseball.Rules `json:"rules,omitempty"`
}

func HandleCreateRoom(manager *hub.RoomManager, defaultRules baseball.Rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &CreateRoomRequest{}
		if r.Body != nil {
			// An empty body means a default room.
			if err := json.NewDecoder(r.Body).Decode(req); err != nil && err.Error() != "EOF" {
				http.Error(w, "Malformed request body", http.StatusBadRequest)
				return
			}
		}

		roomID := req.RoomID
		if roomID == "" {
			roomID = uuid.NewString()
		}
		if !roomIDRegex.MatchString(roomID) {
			http.Error(w, "Room ID must be 1-64 alphanumeric characters or dashes", http.StatusBadRequest)
			return
		}

		rules := defaultRules
		if req.Rules != nil {
			rules = *req.Rules
		}

		createdBy := ""
		if claims := middleware.ParticipantFromContext(r.Context()); claims != nil {
			createdBy = claims.UID
		}

		record, err := manager.CreateRoom(r.Context(), roomID, createdBy, rules)
		if err != nil {
			if repositories.IsRoomExists(err) {
				http.Error(w, "Room already exists", http.StatusConflict)
				return
			}
			log.Error("failed to create room: %v", err)
			http.Error(w, "Failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(record); err != nil {
			log.Error("failed to encode room record: %v", err)
		}
	}
}

func HandleListRooms(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repository.ListRooms(r.Context())
		if err != nil {
			log.Error("failed to list rooms: %v", err)
			http.Error(w, "Failed to list rooms", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []*repositories.RoomRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			log.Error("failed to encode room records: %v", err)
		}
	}
}

func HandleGetRoom(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomID"]
		record, err := repository.GetRoom(r.Context(), roomID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get room %s: %v", roomID, err)
			http.Error(w, "Failed to get room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(record); err != nil {
			log.Error("failed to encode room record: %v", err)
		}
	}
}

func HandleResetRoom(manager *hub.RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomID"]
		record, err := manager.ResetRoom(r.Context(), roomID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to reset room %s: %v", roomID, err)
			http.Error(w, "Failed to reset room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(record); err != nil {
			log.Error("failed to encode room record: %v", err)
		}
	}
}

func HandleListResults(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := repository.ListResults(r.Context())
		if err != nil {
			log.Error("failed to list results: %v", err)
			http.Error(w, "Failed to list results", http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []*repositories.GameResult{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			log.Error("failed to encode results: %v", err)
		}
	}
}
