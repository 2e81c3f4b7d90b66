package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"awreplay/communication"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

// handleWebSocket streams updates of whatever is playing. Clients may send
// control messages on the same connection; each gets a status or error reply.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn().Msgf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, updates := s.gm.Subscribe()
	defer s.gm.Unsubscribe(id)
	log.Info().Msgf("spectator %s connected", id)

	if err := writeMessage(ctx, conn, communication.HelloMessage, communication.Hello{Subscriber: id.String()}); err != nil {
		return
	}
	if snap, err := s.gm.Snapshot(ctx); err == nil {
		if err := writeMessage(ctx, conn, communication.SnapshotMessage, snap); err != nil {
			return
		}
	}

	replies := make(chan []byte, 16)
	go func() {
		defer cancel()
		for {
			var msg []byte
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				var err error
				if msg, err = communication.NewMessage(communication.UpdateMessage, u); err != nil {
					log.Error().Msgf("encode update: %v", err)
					continue
				}
			case msg = <-replies:
			}
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg communication.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, communication.ErrorMessage, communication.ErrorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(ctx, replies, msg)
	}
	log.Info().Msgf("spectator %s disconnected", id)
}

func (s *Server) handleMessage(ctx context.Context, replies chan []byte, msg communication.Message) {
	switch msg.Type {
	case communication.ControlMessage:
		var cmd communication.Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			reply(replies, communication.ErrorMessage, communication.ErrorPayload{Message: "invalid control payload"})
			return
		}
		status, err := s.gm.Control(ctx, cmd)
		if err != nil && !errors.Is(err, communication.ErrNoReplay) {
			reply(replies, communication.StatusMessage, controlResponse{Status: status, Error: err.Error()})
			return
		}
		if err != nil {
			reply(replies, communication.ErrorMessage, communication.ErrorPayload{Message: err.Error()})
			return
		}
		reply(replies, communication.StatusMessage, controlResponse{Status: status})
	case communication.SnapshotMessage:
		snap, err := s.gm.Snapshot(ctx)
		if err != nil {
			reply(replies, communication.ErrorMessage, communication.ErrorPayload{Message: err.Error()})
			return
		}
		reply(replies, communication.SnapshotMessage, snap)
	default:
		reply(replies, communication.ErrorMessage, communication.ErrorPayload{Message: "unknown message type: " + msg.Type})
	}
}

func reply(replies chan []byte, msgType string, payload any) {
	msg, err := communication.NewMessage(msgType, payload)
	if err != nil {
		log.Error().Msgf("encode %s reply: %v", msgType, err)
		return
	}
	select {
	case replies <- msg:
	default:
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	msg, err := communication.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}
