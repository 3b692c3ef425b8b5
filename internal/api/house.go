package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/smarthome-core/internal/location"
)

// RoomRequest names a room to add or delete.
type RoomRequest struct {
	Name string `json:"name"`
}

// RoomResponse describes one room after a change.
type RoomResponse struct {
	HouseName string   `json:"house_name"`
	RoomName  string   `json:"room_name"`
	Devices   []string `json:"devices"`
}

// RoomsListResponse lists every room of the house.
type RoomsListResponse struct {
	HouseName string   `json:"house_name"`
	Rooms     []string `json:"rooms"`
}

// DeviceRequest names a device placed in a room.
type DeviceRequest struct {
	Room   string `json:"room"`
	Device string `json:"device"`
}

// DeviceResponse describes a room's devices after a change.
type DeviceResponse = RoomResponse

// handleListRooms returns all rooms in insertion order.
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.roomsList())
}

// handleAddRoom adds a room. Adding an existing room succeeds unchanged.
func (s *Server) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if s.house.AddRoom(req.Name) {
		s.logger.Info("room added", "room", req.Name)
	}
	writeJSON(w, http.StatusOK, s.roomResponse(req.Name))
}

// handleDeleteRoom removes a room. Unknown rooms are ignored.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if s.house.DeleteRoom(req.Name) {
		s.logger.Info("room deleted", "room", req.Name)
	}
	writeJSON(w, http.StatusOK, s.roomsList())
}

// handleAddDevice places a device in an existing room.
func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.house.AddDevice(req.Room, req.Device); err != nil {
		s.writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.roomResponse(req.Room))
}

// handleDeleteDevice removes a device from a room.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.house.DeleteDevice(req.Room, req.Device); err != nil {
		s.writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.roomResponse(req.Room))
}

// handleReport renders the house report as plain text.
func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, err := s.house.Report(s.catalog)
	if err != nil {
		s.writeHouseError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write([]byte(report))
}

func (s *Server) roomResponse(room string) RoomResponse {
	devices := s.house.Devices(room)
	if devices == nil {
		devices = []string{}
	}
	return RoomResponse{
		HouseName: s.house.Name(),
		RoomName:  room,
		Devices:   devices,
	}
}

func (s *Server) roomsList() RoomsListResponse {
	rooms := s.house.Rooms()
	if rooms == nil {
		rooms = []string{}
	}
	return RoomsListResponse{
		HouseName: s.house.Name(),
		Rooms:     rooms,
	}
}

// writeHouseError maps location errors onto HTTP statuses.
func (s *Server) writeHouseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, location.ErrRoomNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, location.ErrInvalidName):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, location.ErrReportIncomplete):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		s.logger.Error("house operation failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
