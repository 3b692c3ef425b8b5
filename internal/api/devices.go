package api

import (
	"net/http"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/outlet"
)

// OutletResponse is the JSON form of the outlet plus its info text.
type OutletResponse struct {
	device.OutletState
	State string `json:"state"`
	Info  string `json:"info"`
}

// ThermometerResponse is the JSON form of a thermometer reading.
type ThermometerResponse struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	HasReading  bool    `json:"has_reading"`
}

// handleGetOutlet returns the outlet snapshot.
func (s *Server) handleGetOutlet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newOutletResponse(s.outlet.Outlet().Snapshot()))
}

// handleOutletInfo returns the outlet info text, exactly as STP clients see it.
func (s *Server) handleOutletInfo(w http.ResponseWriter, r *http.Request) {
	resp := s.outlet.Execute(r.Context(), outlet.CommandInfo)
	writeJSON(w, http.StatusOK, map[string]string{"info": resp.Text})
}

// handleOutletOn switches the outlet on.
func (s *Server) handleOutletOn(w http.ResponseWriter, r *http.Request) {
	s.switchOutlet(w, r, outlet.CommandOn)
}

// handleOutletOff switches the outlet off.
func (s *Server) handleOutletOff(w http.ResponseWriter, r *http.Request) {
	s.switchOutlet(w, r, outlet.CommandOff)
}

// switchOutlet runs cmd through the shared handler so observers (MQTT,
// WebSocket, history) see API switches the same way as STP ones.
func (s *Server) switchOutlet(w http.ResponseWriter, r *http.Request, cmd outlet.Command) {
	s.outlet.Execute(r.Context(), cmd)
	s.logger.Info("outlet switched via API",
		"command", cmd.String(),
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeJSON(w, http.StatusOK, newOutletResponse(s.outlet.Outlet().Snapshot()))
}

// handleGetThermometer returns the latest thermometer reading.
func (s *Server) handleGetThermometer(w http.ResponseWriter, _ *http.Request) {
	if s.thermometer == nil {
		writeNotFound(w, "no thermometer configured")
		return
	}

	hasReading := true
	if s.readings != nil {
		_, hasReading = s.readings.Reading()
	}
	writeJSON(w, http.StatusOK, ThermometerResponse{
		Name:        s.thermometer.Name(),
		Temperature: s.thermometer.Temperature(),
		HasReading:  hasReading,
	})
}

func newOutletResponse(st device.OutletState) OutletResponse {
	return OutletResponse{
		OutletState: st,
		State:       st.StateText(),
		Info:        st.Info(),
	}
}
