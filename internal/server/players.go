package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/sonos-mqtt-go/internal/api"
	"github.com/strefethen/sonos-mqtt-go/internal/apperrors"
	"github.com/strefethen/sonos-mqtt-go/internal/bridge"
	"github.com/strefethen/sonos-mqtt-go/internal/media"
	"github.com/strefethen/sonos-mqtt-go/internal/player"
)

// playerResource is the API shape of one player.
type playerResource struct {
	Object     string       `json:"object"` // Always "player"
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	SourceList []string     `json:"source_list"`
	State      player.State `json:"state"`
}

func toPlayerResource(entity *player.Entity) playerResource {
	return playerResource{
		Object:     "player",
		ID:         entity.ID(),
		Name:       entity.Name(),
		SourceList: entity.SourceList(),
		State:      entity.State(),
	}
}

// actionRequest is a typed player action. Fields beyond Action are only
// required by the actions that use them.
type actionRequest struct {
	Action  string   `json:"action"`
	Seconds *float64 `json:"seconds,omitempty"`
	Level   *float64 `json:"level,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
	Mode    *string  `json:"mode,omitempty"`
	Source  *string  `json:"source,omitempty"`
}

// commandRequest is the raw pass-through envelope for commands the typed
// actions don't cover.
type commandRequest struct {
	Command string `json:"command"`
	Input   any    `json:"input"`
}

// playRequest asks a player to play a media identifier.
type playRequest struct {
	MediaID  string `json:"media_id"`
	Announce bool   `json:"announce"`
}

func registerPlayerRoutes(router chi.Router, manager *bridge.Manager, mediaRouter *media.Router, hub *Hub) {
	router.Method(http.MethodGet, "/v1/players", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entities := manager.Players()
		resources := make([]playerResource, 0, len(entities))
		for _, entity := range entities {
			resources = append(resources, toPlayerResource(entity))
		}
		return api.WriteList(w, "/v1/players", resources)
	}))

	router.Method(http.MethodGet, "/v1/players/{playerID}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entity, err := lookupPlayer(manager, r)
		if err != nil {
			return err
		}
		return api.WriteResource(w, http.StatusOK, toPlayerResource(entity))
	}))

	router.Method(http.MethodPost, "/v1/players/{playerID}/actions", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entity, err := lookupPlayer(manager, r)
		if err != nil {
			return err
		}
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		if err := dispatchAction(entity, req); err != nil {
			return err
		}
		return api.WriteResource(w, http.StatusOK, toPlayerResource(entity))
	}))

	router.Method(http.MethodPost, "/v1/players/{playerID}/commands", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entity, err := lookupPlayer(manager, r)
		if err != nil {
			return err
		}
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		if req.Command == "" {
			return apperrors.NewValidationError("command is required", nil)
		}
		if err := entity.SendCommand(req.Command, req.Input); err != nil {
			return apperrors.NewBusUnavailableError(err.Error())
		}
		return api.WriteJSON(w, http.StatusAccepted, map[string]any{"status": "sent"})
	}))

	router.Method(http.MethodPost, "/v1/players/{playerID}/play", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		entity, err := lookupPlayer(manager, r)
		if err != nil {
			return err
		}
		var req playRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		if req.MediaID == "" {
			return apperrors.NewValidationError("media_id is required", nil)
		}
		if err := mediaRouter.Route(r.Context(), entity, req.MediaID, req.Announce); err != nil {
			return apperrors.NewAppError(apperrors.ErrorCodeContentUnavailable, err.Error(), 502, nil)
		}
		return api.WriteJSON(w, http.StatusAccepted, map[string]any{"status": "sent"})
	}))

	router.Method(http.MethodGet, "/v1/players/{playerID}/stream", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		playerID := chi.URLParam(r, "playerID")
		if _, ok := manager.Player(playerID); !ok {
			return apperrors.NewPlayerNotFoundError(playerID)
		}
		hub.ServeStream(w, r, playerID)
		return nil
	}))
}

func lookupPlayer(manager *bridge.Manager, r *http.Request) (*player.Entity, error) {
	playerID := chi.URLParam(r, "playerID")
	entity, ok := manager.Player(playerID)
	if !ok {
		return nil, apperrors.NewPlayerNotFoundError(playerID)
	}
	return entity, nil
}

// dispatchAction maps a typed action onto the matching entity method.
// Publish failures surface as bus errors; everything else is a validation
// problem with the request itself.
func dispatchAction(entity *player.Entity, req actionRequest) error {
	var err error
	switch req.Action {
	case "play":
		err = entity.Play()
	case "pause":
		err = entity.Pause()
	case "play_pause":
		err = entity.PlayPause()
	case "next_track":
		err = entity.NextTrack()
	case "previous_track":
		err = entity.PreviousTrack()
	case "seek":
		if req.Seconds == nil {
			return apperrors.NewValidationError("seek requires seconds", nil)
		}
		err = entity.Seek(*req.Seconds)
	case "mute":
		if req.Enabled == nil {
			return apperrors.NewValidationError("mute requires enabled", nil)
		}
		err = entity.MuteVolume(*req.Enabled)
	case "set_volume":
		if req.Level == nil {
			return apperrors.NewValidationError("set_volume requires level", nil)
		}
		if *req.Level < 0 || *req.Level > 1 {
			return apperrors.NewValidationError("level must be between 0 and 1", nil)
		}
		err = entity.SetVolumeLevel(*req.Level)
	case "volume_up":
		err = entity.VolumeUp()
	case "volume_down":
		err = entity.VolumeDown()
	case "set_shuffle":
		if req.Enabled == nil {
			return apperrors.NewValidationError("set_shuffle requires enabled", nil)
		}
		err = entity.SetShuffle(*req.Enabled)
	case "set_repeat":
		if req.Mode == nil {
			return apperrors.NewValidationError("set_repeat requires mode", nil)
		}
		mode := player.RepeatMode(*req.Mode)
		if mode != player.RepeatOff && mode != player.RepeatOne && mode != player.RepeatAll {
			return apperrors.NewValidationError("unknown repeat mode: "+*req.Mode, nil)
		}
		err = entity.SetRepeat(mode)
	case "select_source":
		if req.Source == nil {
			return apperrors.NewValidationError("select_source requires source", nil)
		}
		err = entity.SelectSource(*req.Source)
	case "set_crossfade":
		if req.Enabled == nil {
			return apperrors.NewValidationError("set_crossfade requires enabled", nil)
		}
		err = entity.SetCrossfade(*req.Enabled)
	case "set_sleep_timer":
		if req.Seconds == nil {
			err = entity.ClearSleepTimer()
		} else {
			err = entity.SetSleepTimer(*req.Seconds)
		}
	case "snooze":
		if req.Seconds == nil {
			err = entity.ClearSnooze()
		} else {
			err = entity.Snooze(*req.Seconds)
		}
	case "set_group_volume":
		if req.Level == nil {
			return apperrors.NewValidationError("set_group_volume requires level", nil)
		}
		err = entity.SetGroupVolume(*req.Level)
	case "group_volume_up":
		err = entity.GroupVolumeUp()
	case "group_volume_down":
		err = entity.GroupVolumeDown()
	default:
		return apperrors.NewValidationError("unknown action: "+req.Action, nil)
	}
	if err != nil {
		return apperrors.NewBusUnavailableError(err.Error())
	}
	return nil
}
