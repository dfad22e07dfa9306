package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wastetwin/internal/api"
	"wastetwin/internal/catalog"
	"wastetwin/internal/ledger"
	"wastetwin/internal/queue"
	"wastetwin/internal/workflow"
)

const (
	defaultProcessedLimit = 50
	maxProcessedLimit     = 500
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	rows, err := s.daemon.ledger.Count(r.Context(), ledger.Filter{})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		LockFilePath:  status.LockFilePath,
		AutoProcess:   status.AutoProcess,
		DriverRunning: status.DriverRunning,
		MaxConcurrent: s.workflow().MaxConcurrent(),
		Notifications: s.daemon.cfg.NotificationsEnabled(),
		Subscribers:   status.Subscribers,
		LedgerRows:    rows,
	})
}

func (s *apiServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	wf := s.workflow()
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(wf.Stats(), wf.MaxConcurrent()))
}

func (s *apiServer) handleQueueList(w http.ResponseWriter, _ *http.Request) {
	snap := s.workflow().Stats()
	s.writeJSON(w, http.StatusOK, api.QueueResponse{
		Items:  api.FromItems(snap.Queue),
		Length: snap.QueueLength,
	})
}

func (s *apiServer) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		s.writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	ids, err := s.workflow().Enqueue(req.Category, req.QuantityOrDefault())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.EnqueueResponse{
		IDs:         ids,
		QueueLength: s.workflow().QueueLength(),
	})
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}
	if v := r.URL.Query().Get("all"); v == "1" || strings.EqualFold(v, "true") {
		req.All = true
	}

	wf := s.workflow()
	first, err := wf.ProcessNext()
	if err != nil {
		if errors.Is(err, queue.ErrQueueEmpty) || errors.Is(err, workflow.ErrConcurrencyLimit) {
			s.writeJSON(w, http.StatusOK, api.ProcessResponse{Started: []api.Item{}, Message: err.Error()})
			return
		}
		s.writeDomainError(w, err)
		return
	}
	started := []queue.Item{first}
	if req.All {
		started = append(started, wf.ProcessAvailable()...)
	}
	s.writeJSON(w, http.StatusAccepted, api.ProcessResponse{Started: api.FromItems(started)})
}

func (s *apiServer) handleConcurrency(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ConcurrencyResponse{MaxConcurrent: s.workflow().MaxConcurrent()})
}

func (s *apiServer) handleSetConcurrency(w http.ResponseWriter, r *http.Request) {
	var req api.ConcurrencyRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if err := s.workflow().SetMaxConcurrent(req.MaxConcurrent); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ConcurrencyResponse{MaxConcurrent: s.workflow().MaxConcurrent()})
}

func (s *apiServer) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.CategoriesResponse{
		Categories: api.FromCategories(s.workflow().Catalog().Specs()),
	})
}

func (s *apiServer) handleComposition(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	comp, ok := catalog.LookupComposition(category)
	if !ok {
		s.writeDomainError(w, fmt.Errorf("%w: no composition for %q", catalog.ErrUnknownCategory, category))
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromComposition(comp))
}

func (s *apiServer) handleProcessed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ledger.Filter{
		Category: strings.TrimSpace(query.Get("category")),
		Limit:    defaultProcessedLimit,
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, maxProcessedLimit)
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}
	if v := strings.TrimSpace(query.Get("status")); v != "" {
		status, ok := queue.ParseStatus(v)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(v))
			return
		}
		filter.Status = status
	}

	items, total, err := s.listProcessed(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProcessedResponse{
		Items:  api.FromItems(items),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (s *apiServer) listProcessed(ctx context.Context, filter ledger.Filter) ([]queue.Item, int, error) {
	items, err := s.daemon.ledger.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.daemon.ledger.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChatResponse{Reply: s.daemon.chat.Reply(req.Message)})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message+": "+err.Error())
		return
	}
	if !sent {
		s.writeError(w, http.StatusConflict, message)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
