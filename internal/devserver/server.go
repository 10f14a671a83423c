package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
)

const (
	// APIPrefix is where the main API is mounted.
	APIPrefix = "/api/srv"

	// ChatPrefix is where the chat service is mounted.
	ChatPrefix = "/api/chats"

	// SessionCookie carries the login session.
	SessionCookie = "eventum_session"

	// RequestIDHeader echoes the id assigned to each request.
	RequestIDHeader = "X-Request-Id"

	maxBody = 1 << 20
)

// Server serves the dev API, chat service and push endpoint.
type Server struct {
	store  *Store
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pushConn prometheus.Gauge

	mu       sync.RWMutex
	sessions map[string]int64

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the registry served on /metrics. Defaults to a new
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a server over store.
func New(store *Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	factory := promauto.With(s.registry)
	s.requests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventum",
		Subsystem: "devserver",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	s.duration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eventum",
		Subsystem: "devserver",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	s.pushConn = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventum",
		Subsystem: "devserver",
		Name:      "push_connections",
		Help:      "Open push connections",
	})

	s.hub = NewHub(s.logger)
	s.hub.onChange = func(n int) { s.pushConn.Set(float64(n)) }
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the push hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get(realtime.ConnectPath, s.hub.ServeHTTP)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/profile", s.getProfile)
		r.Put("/profile", s.putProfile)
		r.Get("/profile/{uid}/own-events", s.ownEvents)
		r.Get("/profile/{uid}/subscriptions", s.subscriptions)
		r.Post("/events/{kind}", s.createEvent)
		r.Post("/events", s.search)
		r.Get("/tags/feed", s.tags)
		r.Post("/login", s.login)
	})
	r.Route(ChatPrefix, func(r chi.Router) {
		r.Post("/list", s.chats)
		r.Put("/{chatID}", s.messages)
		r.Post("/{chatID}/messages", s.send)
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"id", w.Header().Get(RequestIDHeader),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// storeError maps a store failure to a response.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrNotMember):
		writeMessage(w, http.StatusForbidden, "You are not in this chat")
	default:
		s.logger.Error("store failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal error")
	}
}

// session returns the signed-in user, or writes 401.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.RLock()
		uid, ok := s.sessions[cookie.Value]
		s.mu.RUnlock()
		if ok {
			return uid, true
		}
	}
	writeMessage(w, http.StatusUnauthorized, "Sign in to continue")
	return 0, false
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	p, err := s.store.Profile(uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	var p model.Profile
	if err := decode(r, &p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid profile")
		return
	}
	if p.ID != 0 && p.ID != uid {
		writeMessage(w, http.StatusForbidden, "You can only edit your own profile")
		return
	}
	updated, err := s.store.UpdateProfile(uid, p)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) ownEvents(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	g, err := s.store.OwnEvents(uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) subscriptions(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	g, err := s.store.Subscriptions(uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	kind := model.EventKind(chi.URLParam(r, "kind"))
	if kind != model.KindSmall && kind != model.KindMid {
		writeMessage(w, http.StatusNotFound, "Unknown event type")
		return
	}
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	var e model.NewEvent
	if err := decode(r, &e); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid event")
		return
	}
	e.Kind = kind
	if e.UID == 0 {
		e.UID = uid
	}
	if e.UID != uid {
		writeMessage(w, http.StatusForbidden, "You can only create your own events")
		return
	}
	if err := e.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store.CreateEvent(kind, e)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid search")
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := s.store.Events()
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Search(events, req))
}

func (s *Server) tags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.Tags()
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// login answers 200 without a name on bad credentials, as the real API
// does.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c model.Credentials
	if err := decode(r, &c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	user, err := s.store.Authenticate(c)
	if errors.Is(err, ErrBadCredentials) || errors.Is(err, ErrNotFound) {
		writeMessage(w, http.StatusOK, "Wrong login or password")
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = user.ID
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) chats(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	chats, err := s.store.Chats(uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) messages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "chatID")
	if !ok {
		return
	}
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Limit int `json:"limit"`
	}
	if err := decode(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}
	msgs, err := s.store.Messages(uid, chatID, body.Limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// send stores a message and pushes it to the other members.
func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "chatID")
	if !ok {
		return
	}
	uid, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := decode(r, &body); err != nil || body.Body == "" {
		writeMessage(w, http.StatusBadRequest, "Message is empty")
		return
	}
	msg, err := s.store.AddMessage(chatID, uid, body.Body, s.now())
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.Notify(chatID, msg)
	writeJSON(w, http.StatusCreated, msg)
}

// Notify pushes msg to every member of chatID except its sender and
// returns the number of connections reached.
func (s *Server) Notify(chatID int64, msg model.Message) int {
	members, err := s.store.Members(chatID)
	if err != nil {
		s.logger.Warn("notify: no members", "chat", chatID, "error", err)
		return 0
	}
	n := realtime.Notification{UID: msg.UID, Type: "message", ChatID: chatID, Body: msg.Body}
	sent := 0
	for _, member := range members {
		if member != msg.UID {
			sent += s.hub.Push(member, n)
		}
	}
	return sent
}
