package signal

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleStatus(s *subscriber) {
	snap, err := ctl.Registry.Status(s.code)
	if err != nil {
		ctl.sendJSON(s.conn, errorMessage{Type: "error", Error: "not_found", Message: err.Error()})
		return
	}
	ctl.sendJSON(s.conn, stateMessage{Type: "session_state", Session: snap})
}
