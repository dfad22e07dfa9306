package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wastetwin/internal/api"
	"wastetwin/internal/events"
	"wastetwin/internal/logging"
)

const (
	defaultEventsLimit = 200
	longPollTimeout    = 25 * time.Second
	streamWriteWait    = 10 * time.Second
	streamPingPeriod   = 30 * time.Second
)

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	hub := s.workflow().Events()
	query := r.URL.Query()

	var since uint64
	if v := query.Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	limit := defaultEventsLimit
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	follow := flagValue(query.Get("follow"))
	tail := flagValue(query.Get("tail"))

	var (
		raw  []events.Event
		next uint64
	)
	if tail && since == 0 && !follow {
		raw, next = hub.Tail(limit)
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
			defer cancel()
		}
		var err error
		raw, next, err = hub.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if kinds := query["type"]; len(kinds) > 0 {
		raw = filterKinds(raw, kinds)
	}
	if item := strings.TrimSpace(query.Get("item")); item != "" {
		raw = filterItem(raw, item)
	}

	s.writeJSON(w, http.StatusOK, api.EventsResponse{
		Events: api.FromEvents(raw),
		Next:   next,
		First:  hub.FirstSequence(),
	})
}

func flagValue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func filterKinds(in []events.Event, names []string) []events.Event {
	want := make(map[events.Kind]struct{}, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if kind, ok := events.ParseKind(strings.TrimSpace(part)); ok {
				want[kind] = struct{}{}
			}
		}
	}
	out := make([]events.Event, 0, len(in))
	for _, evt := range in {
		if _, ok := want[evt.Kind]; ok {
			out = append(out, evt)
		}
	}
	return out
}

func filterItem(in []events.Event, id string) []events.Event {
	out := make([]events.Event, 0, len(in))
	for _, evt := range in {
		if evt.ItemID() == id {
			out = append(out, evt)
		}
	}
	return out
}

// handleStream upgrades to a WebSocket and pushes a snapshot frame followed
// by one frame per hub event. Client messages are read and discarded so
// close frames are noticed.
func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	wf := s.workflow()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	sub := wf.Subscribe(0)
	defer sub.Unsubscribe()

	snapshot := api.FromSnapshot(wf.Stats(), wf.MaxConcurrent())
	if err := writeFrame(conn, api.StreamFrame{Kind: api.FrameSnapshot, Stats: &snapshot}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					s.logger.Warn("websocket read error", logging.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	serverCtx := s.context()

	for {
		select {
		case <-done:
			return
		case <-serverCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case evt, ok := <-sub.C():
			if !ok {
				return
			}
			dto := api.FromEvent(evt)
			if err := writeFrame(conn, api.StreamFrame{Kind: api.FrameEvent, Event: &dto}); err != nil {
				s.logger.Debug("websocket write failed", logging.Error(err))
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame api.StreamFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
