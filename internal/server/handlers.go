package server

import (
	"encoding/json"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/focus"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// CommandParams are the parameters of the "command" method.
type CommandParams struct {
	// Name is a command from commands/list, e.g. "next" or "tab_pressed".
	Name string `json:"name"`
}

// PointerParams are the parameters of the "pointer" method.
type PointerParams struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StatusResult is returned by the "status" method.
type StatusResult struct {
	Focus    focus.Snapshot    `json:"focus"`
	Pending  int               `json:"pending"`
	Dropped  int64             `json:"dropped"`
	Recovery []recovery.Status `json:"recovery,omitempty"`
}

func (s *Server) handleCommand(req *Request) *Response {
	var p CommandParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}
	kind, err := focus.ParseCommand(p.Name)
	if err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Unknown command", err.Error())
	}
	if kind == focus.CmdPointerMoved {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", "use the pointer method to move the pointer")
	}
	return s.enqueue(req, focus.Command{Kind: kind})
}

func (s *Server) handlePointer(req *Request) *Response {
	var p PointerParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}
	if p.X < 0 || p.Y < 0 {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", "coordinates must not be negative")
	}
	return s.enqueue(req, focus.Command{Kind: focus.CmdPointerMoved, Point: element.Point{X: p.X, Y: p.Y}})
}

func (s *Server) enqueue(req *Request, cmd focus.Command) *Response {
	if !s.backend.Enqueue(cmd) {
		s.logger.Warnw("command dropped, queue full", "command", cmd.Kind.String())
		return s.errorResponse(req.ID, CodeQueueFull, "Command queue full", cmd.Kind.String())
	}
	s.logger.Debugw("command queued", "command", cmd.Kind.String())
	return s.result(req.ID, map[string]interface{}{"queued": cmd.Kind.String()})
}

func (s *Server) handleStatus(req *Request) *Response {
	res := StatusResult{Focus: s.backend.Snapshot()}
	if sb, ok := s.backend.(StatusBackend); ok {
		res.Pending = sb.Pending()
		res.Dropped = sb.Dropped()
		res.Recovery = sb.RecoveryStatus()
	}
	return s.result(req.ID, res)
}

func (s *Server) handleHistory(req *Request) *Response {
	hb, ok := s.backend.(HistoryBackend)
	if !ok {
		return s.result(req.ID, map[string]interface{}{"transitions": []focus.Transition{}})
	}
	return s.result(req.ID, map[string]interface{}{"transitions": hb.History()})
}
