// Package server is a small control plane: an HTTP JSON API over the SQLite
// store plus a websocket change feed. `cloudconsole serve` runs it for local
// development; tests run it under httptest.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"cloudconsole/internal/model"
	"cloudconsole/internal/store"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

type ServerConfig struct {
	Dir    string
	Logger *log.Logger
}

type Server struct {
	db  *store.DB
	hub *hub
	log *log.Logger
	mux *http.ServeMux
}

func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	db, err := store.Store{Dir: cfg.Dir}.Open(ctx)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		db:  db,
		hub: newHub(),
		log: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /{kind}", s.handleList)
	mux.HandleFunc("POST /{kind}", s.handleCreate)
	mux.HandleFunc("DELETE /{kind}", s.handleDeleteMany)
	mux.HandleFunc("GET /{kind}/{id}", s.handleGet)
	mux.HandleFunc("PUT /{kind}/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /{kind}/{id}", s.handleDelete)
	s.mux = mux
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

type apiErr struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, apiErr{Error: verr.Code, Message: verr.Message})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiErr{Error: "not_found", Message: err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiErr{Error: "internal", Message: "internal error"})
	}
}

func (s *Server) kind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	k, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiErr{Error: "not_found", Message: err.Error()})
		return "", false
	}
	return k, true
}

// present decorates a stored document for reads.
func present(k model.Kind, d model.Doc) model.Doc {
	if k != model.KindInstance {
		return d
	}
	var inst model.Instance
	if err := d.Decode(&inst); err != nil {
		return d
	}
	inst.DeriveStatus()
	return d.With("status", inst.Status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	docs, err := s.db.List(r.Context(), k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for i := range docs {
		docs[i] = present(k, docs[i])
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	doc, err := s.db.Get(r.Context(), k, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, present(k, doc))
}

func decodeDoc(r *http.Request) (model.Doc, error) {
	var d model.Doc
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&d); err != nil {
		return model.Doc{}, &model.ValidationError{Code: "invalid_json", Message: err.Error()}
	}
	return d, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	in, err := decodeDoc(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := model.Normalize(k, in.With("id", ""))
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err = s.db.Insert(r.Context(), k, doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("created", "kind", k, "id", doc.ID())
	s.hub.publish(model.ChangeEvent{Type: model.EventCreated, Kind: k, IDs: []string{doc.ID()}})
	writeJSON(w, http.StatusOK, present(k, doc))
}

// readOnlyFields are owned by the control plane and never taken from clients.
var readOnlyFields = map[model.Kind][]string{
	model.KindInstance: {"status", "vm_state", "public_ip", "public_ip6"},
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	in, err := decodeDoc(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	in = in.With("id", id)
	doc, _, err := s.db.Mutate(r.Context(), k, id, func(cur model.Doc) (model.Doc, error) {
		next := in
		for _, f := range readOnlyFields[k] {
			v, _ := cur.Get(f)
			next = next.With(f, v)
		}
		return model.Normalize(k, next)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("updated", "kind", k, "id", id)
	s.hub.publish(model.ChangeEvent{Type: model.EventUpdated, Kind: k, IDs: []string{id}})
	writeJSON(w, http.StatusOK, present(k, doc))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := s.db.Delete(r.Context(), k, id); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("deleted", "kind", k, "id", id)
	s.hub.publish(model.ChangeEvent{Type: model.EventDeleted, Kind: k, IDs: []string{id}})
	writeJSON(w, http.StatusOK, map[string]any{"ids": []string{id}})
}

func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	k, ok := s.kind(w, r)
	if !ok {
		return
	}
	var ids []string
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&ids); err != nil {
		s.writeError(w, &model.ValidationError{Code: "invalid_json", Message: err.Error()})
		return
	}
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	removed, err := s.db.DeleteMany(r.Context(), k, ids)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("deleted", "kind", k, "count", len(removed))
	if len(removed) > 0 {
		s.hub.publish(model.ChangeEvent{Type: model.EventDeleted, Kind: k, IDs: removed})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": removed})
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "://"+strings.TrimSpace(r.Host))
	},
}

const wsPingInterval = 20 * time.Second

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status.
		return
	}
	defer conn.Close()

	events, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: we only care about the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("event client gone", "error", err)
				return
			}
		}
	}
}
