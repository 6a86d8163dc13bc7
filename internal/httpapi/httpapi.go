// Package httpapi exposes the place and astro-record operations over HTTP.
// Routes mirror the service API one to one; all business decisions stay in
// the services, this layer only shapes requests and maps errors to statuses.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/domain"
	"github.com/mkarev/suntrack/internal/enrichment"
	"github.com/mkarev/suntrack/internal/observability"
)

type PlaceService interface {
	Create(ctx context.Context, in domain.PlaceInput) (*domain.Place, error)
	GetByID(ctx context.Context, id int) (*domain.Place, error)
	GetAll(ctx context.Context) ([]domain.Place, error)
	Update(ctx context.Context, id int, in domain.PlaceInput) (*domain.Place, error)
	Delete(ctx context.Context, id int) error
}

type AstroRecordService interface {
	Create(ctx context.Context, in domain.AstroRecordInput) (*domain.AstroRecord, error)
	GetByID(ctx context.Context, id int) (*domain.AstroRecord, error)
	GetAll(ctx context.Context) ([]domain.AstroRecord, error)
	Update(ctx context.Context, id int, in domain.AstroRecordInput) (*domain.AstroRecord, error)
	Delete(ctx context.Context, id int) error
	GetByPlaceID(ctx context.Context, placeID int) ([]domain.AstroRecord, error)
	GetByDateAndPlaceName(ctx context.Context, date domain.Date, placeName string) ([]domain.AstroRecord, error)
}

type Server struct {
	places  PlaceService
	records AstroRecordService
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(places PlaceService, records AstroRecordService, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		places:  places,
		records: records,
		logger:  logger,
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(ServerTiming(s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/locations", func(r chi.Router) {
		r.Post("/", s.createPlace)
		r.Get("/all", s.getAllPlaces)
		r.Get("/{id}", s.getPlace)
		r.Put("/{id}", s.updatePlace)
		r.Delete("/{id}", s.deletePlace)
	})

	r.Route("/sun/times", func(r chi.Router) {
		r.Post("/", s.createRecord)
		r.Get("/all", s.getAllRecords)
		r.Get("/by-date-and-location", s.getRecordsByDateAndName)
		r.Get("/location/{locationID}", s.getRecordsByPlace)
		r.Get("/{id}", s.getRecord)
		r.Put("/{id}", s.updateRecord)
		r.Delete("/{id}", s.deleteRecord)
	})

	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) createPlace(w http.ResponseWriter, r *http.Request) {
	var in domain.PlaceInput
	if !s.decode(w, r, &in) {
		return
	}
	p, err := s.places.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPlace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.places.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getAllPlaces(w http.ResponseWriter, r *http.Request) {
	ps, err := s.places.GetAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) updatePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.PlaceInput
	if !s.decode(w, r, &in) {
		return
	}
	p, err := s.places.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.places.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var in domain.AstroRecordInput
	if !s.decode(w, r, &in) {
		return
	}
	rec, err := s.records.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getAllRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.records.GetAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.AstroRecordInput
	if !s.decode(w, r, &in) {
		return
	}
	rec, err := s.records.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.records.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRecordsByPlace(w http.ResponseWriter, r *http.Request) {
	placeID, ok := s.pathID(w, r, "locationID")
	if !ok {
		return
	}
	recs, err := s.records.GetByPlaceID(r.Context(), placeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getRecordsByDateAndName(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := r.URL.Query().Get("locationName")
	recs, err := s.records.GetByDateAndPlaceName(r.Context(), date, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("bad request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, enrichment.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
