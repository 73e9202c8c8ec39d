package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"livequiz-service/internal/app"
)

// WSHandler upgrades connections and maps inbound channel events onto the
// game service, and the service's broadcasts back out through the Hub.
type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.GameService, hub *Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type hostPayload struct {
	QuizID string `json:"quizId"`
	Name   string `json:"name"`
}

type joinPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type codePayload struct {
	Code string `json:"code"`
}

type choicePayload struct {
	Index int `json:"index"`
}

type textPayload struct {
	Text string `json:"text"`
}

type namePayload struct {
	Name string `json:"name"`
}

type evaluatePayload struct {
	Grades []app.Grade `json:"grades"`
}

type ackPayload struct {
	Op string `json:"op"`
	OK bool   `json:"ok"`
}

type errorPayload struct {
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection's read loop. Every
// connection gets a fresh ID: reconnection is always a brand new join.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}

	connID := uuid.NewString()
	c := h.hub.register(connID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case evt := <-c.send:
				if err := conn.WriteJSON(evt); err != nil {
					h.log.Debug().Err(err).Str("conn_id", connID).Msg("ws write error")
					return
				}
			case <-c.done:
				// Flush whatever the session queued before the close.
				for {
					select {
					case evt := <-c.send:
						_ = conn.WriteJSON(evt)
					default:
						_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
						_ = conn.Close()
						return
					}
				}
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, connID, inbound)
	}

	h.service.Disconnect(connID)
	h.hub.unregister(connID)
	<-writerDone
	_ = conn.Close()
}

func (h *WSHandler) dispatch(r *http.Request, connID string, msg inboundMessage) {
	ctx := r.Context()
	switch msg.Type {
	case "hostGame", "hostRandomGame":
		var p hostPayload
		if !h.decode(connID, msg, &p) {
			return
		}
		code, err := h.service.HostGame(ctx, connID, p.QuizID, p.Name, msg.Type == "hostRandomGame")
		if err != nil {
			h.sendError(connID, msg.Type, err.Error())
			return
		}
		h.hub.Send(connID, app.Event{Type: "gameHosted", Payload: codePayload{Code: code}})
	case "hostTestGame":
		var p hostPayload
		if !h.decode(connID, msg, &p) {
			return
		}
		code, err := h.service.HostTestGame(ctx, connID, p.QuizID)
		if err != nil {
			h.sendError(connID, msg.Type, err.Error())
			return
		}
		h.hub.Send(connID, app.Event{Type: "gameHosted", Payload: codePayload{Code: code}})
	case "validateCode":
		var p codePayload
		if !h.decode(connID, msg, &p) {
			return
		}
		if err := h.service.ValidateJoinCode(p.Code); err != nil {
			h.sendError(connID, msg.Type, err.Error())
			return
		}
		h.hub.Send(connID, app.Event{Type: "codeValid", Payload: p})
	case "joinGame":
		var p joinPayload
		if !h.decode(connID, msg, &p) {
			return
		}
		if err := h.service.JoinGame(connID, p.Code, p.Name); err != nil {
			h.sendError(connID, msg.Type, err.Error())
			return
		}
		h.hub.Send(connID, app.Event{Type: "joined", Payload: p})
	case "getQuestion":
		view, ok := h.service.CurrentQuestion(connID)
		if !ok {
			h.ack(connID, msg.Type, false)
			return
		}
		h.hub.Send(connID, app.Event{Type: "question", Payload: view})
	case "getPlayerList":
		list, ok := h.service.PlayerList(connID)
		if !ok {
			h.ack(connID, msg.Type, false)
			return
		}
		h.hub.Send(connID, app.Event{Type: "playerList", Payload: list})
	case "getDuration":
		remaining, ok := h.service.Duration(connID)
		if !ok {
			h.ack(connID, msg.Type, false)
			return
		}
		h.hub.Send(connID, app.Event{Type: "duration", Payload: app.TimerPayload{Remaining: remaining}})
	case "toggleChoice":
		var p choicePayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.ToggleChoice(connID, p.Index))
	case "submitResponse":
		var p textPayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.SubmitLongResponse(connID, p.Text))
	case "finalizeAnswers":
		h.ack(connID, msg.Type, h.service.FinalizeAnswers(connID))
	case "startGame":
		h.ack(connID, msg.Type, h.service.StartGame(connID))
	case "toggleLock":
		h.ack(connID, msg.Type, h.service.ToggleLock(connID))
	case "nextQuestion":
		h.ack(connID, msg.Type, h.service.AdvanceQuestion(connID))
	case "showResults":
		h.ack(connID, msg.Type, h.service.ShowResults(connID))
	case "pauseTimer":
		h.ack(connID, msg.Type, h.service.TogglePause(connID))
	case "panicMode":
		h.ack(connID, msg.Type, h.service.EnterPanic(connID))
	case "banPlayer":
		var p namePayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.BanPlayer(connID, p.Name))
	case "toggleMute":
		var p namePayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.ToggleMute(connID, p.Name))
	case "sendChat":
		var p textPayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.SendChat(connID, p.Text))
	case "evaluateResponses":
		var p evaluatePayload
		if !h.decode(connID, msg, &p) {
			return
		}
		h.ack(connID, msg.Type, h.service.EvaluateResponses(connID, p.Grades))
	default:
		h.sendError(connID, msg.Type, "unsupported message type")
	}
}

func (h *WSHandler) decode(connID string, msg inboundMessage, into any) bool {
	if err := json.Unmarshal(msg.Payload, into); err != nil {
		h.sendError(connID, msg.Type, "invalid payload")
		return false
	}
	return true
}

func (h *WSHandler) ack(connID, op string, ok bool) {
	h.hub.Send(connID, app.Event{Type: "ack", Payload: ackPayload{Op: op, OK: ok}})
}

func (h *WSHandler) sendError(connID, op, message string) {
	h.hub.Send(connID, app.Event{Type: "error", Payload: errorPayload{Op: op, Message: message}})
}
