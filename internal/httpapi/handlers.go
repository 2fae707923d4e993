package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/auth"
	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/hub"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
)

const (
	directoryLimit = 20
	seatLimit      = 5
	betCeiling     = 10000
)

type CreateTableRequest struct {
	Name       string            `json:"name"`
	Visibility engine.Visibility `json:"visibility"`
	MaxPlayers int               `json:"maxPlayers"`
	MinBet     int64             `json:"minBet"`
	MaxBet     int64             `json:"maxBet"`
}

// settings fills defaults and checks the limits a host may choose.
func (req CreateTableRequest) settings() (engine.Settings, error) {
	s := engine.DefaultSettings()
	if req.Name != "" {
		s.Name = req.Name
	}
	if req.Visibility != "" {
		s.Visibility = req.Visibility
	}
	if req.MaxPlayers != 0 {
		s.MaxSeats = req.MaxPlayers
	}
	if req.MinBet != 0 {
		s.MinBet = req.MinBet
	}
	if req.MaxBet != 0 {
		s.MaxBet = req.MaxBet
	}

	switch {
	case s.Visibility != engine.VisibilityPublic && s.Visibility != engine.VisibilityPrivate:
		return s, errors.New("visibility must be public or private")
	case s.MaxSeats < 1 || s.MaxSeats > seatLimit:
		return s, errors.New("max players must be between 1 and 5")
	case s.MinBet < 1 || s.MaxBet < s.MinBet || s.MaxBet > betCeiling:
		return s, errors.New("invalid bet limits")
	}
	return s, nil
}

func CreateTable(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())

		var req CreateTableRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "bad json")
				return
			}
		}
		settings, err := req.settings()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		balance, err := st.EnsurePlayer(r.Context(), id.PlayerID, id.Name)
		if err != nil {
			log.Error("ensure player failed", logging.Player(id.PlayerID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create table")
			return
		}

		rec := store.TableRecord{
			ID:         uuid.NewString(),
			Name:       settings.Name,
			HostID:     id.PlayerID,
			HostName:   id.Name,
			Visibility: settings.Visibility,
			MinBet:     settings.MinBet,
			MaxBet:     settings.MaxBet,
			MaxSeats:   settings.MaxSeats,
			CreatedAt:  time.Now(),
		}
		if err := st.CreateTable(r.Context(), rec); err != nil {
			log.Error("create table failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create table")
			return
		}
		host := store.RosterEntry{PlayerID: id.PlayerID, Name: id.Name, Seat: 1, Balance: balance}
		if err := st.SaveSeat(r.Context(), rec.ID, host); err != nil {
			log.Warn("seating host failed", logging.Table(rec.ID), zap.Error(err))
		}
		log.Info("table created", logging.Table(rec.ID), logging.Player(id.PlayerID))

		writeJSON(w, http.StatusCreated, struct {
			ID string `json:"tableId"`
		}{ID: rec.ID})
	}
}

func ListTables(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.Directory(r.Context(), directoryLimit)
		if err != nil {
			log.Error("list tables failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list tables")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetTable returns the persisted row of an open table, public or not.
func GetTable(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, roster, err := st.LoadTable(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load table")
			return
		}
		writeJSON(w, http.StatusOK, hub.Listing{
			ID:        rec.ID,
			Name:      rec.Name,
			HostID:    rec.HostID,
			HostName:  rec.HostName,
			Players:   len(roster),
			MaxSeats:  rec.MaxSeats,
			MinBet:    rec.MinBet,
			MaxBet:    rec.MaxBet,
			Phase:     engine.PhaseLobby,
			CreatedAt: rec.CreatedAt,
		})
	}
}

func Me(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		balance, err := st.Balance(r.Context(), id.PlayerID)
		if errors.Is(err, store.ErrNotFound) {
			balance, err = st.EnsurePlayer(r.Context(), id.PlayerID, id.Name)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load balance")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			ID      string `json:"id"`
			Name    string `json:"username"`
			Balance int64  `json:"balance"`
		}{id.PlayerID, id.Name, balance})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{message})
}
