package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/domain"
	"github.com/mkarev/suntrack/internal/enrichment"
	"github.com/mkarev/suntrack/internal/observability"
)

type stubPlaces struct {
	create  func(in domain.PlaceInput) (*domain.Place, error)
	getByID func(id int) (*domain.Place, error)
	getAll  func() ([]domain.Place, error)
	update  func(id int, in domain.PlaceInput) (*domain.Place, error)
	delete  func(id int) error
}

func (s *stubPlaces) Create(_ context.Context, in domain.PlaceInput) (*domain.Place, error) {
	return s.create(in)
}
func (s *stubPlaces) GetByID(_ context.Context, id int) (*domain.Place, error) {
	return s.getByID(id)
}
func (s *stubPlaces) GetAll(_ context.Context) ([]domain.Place, error) { return s.getAll() }
func (s *stubPlaces) Update(_ context.Context, id int, in domain.PlaceInput) (*domain.Place, error) {
	return s.update(id, in)
}
func (s *stubPlaces) Delete(_ context.Context, id int) error { return s.delete(id) }

type stubRecords struct {
	create        func(in domain.AstroRecordInput) (*domain.AstroRecord, error)
	getByID       func(id int) (*domain.AstroRecord, error)
	getAll        func() ([]domain.AstroRecord, error)
	update        func(id int, in domain.AstroRecordInput) (*domain.AstroRecord, error)
	delete        func(id int) error
	byPlaceID     func(placeID int) ([]domain.AstroRecord, error)
	byDateAndName func(date domain.Date, name string) ([]domain.AstroRecord, error)
}

func (s *stubRecords) Create(_ context.Context, in domain.AstroRecordInput) (*domain.AstroRecord, error) {
	return s.create(in)
}
func (s *stubRecords) GetByID(_ context.Context, id int) (*domain.AstroRecord, error) {
	return s.getByID(id)
}
func (s *stubRecords) GetAll(_ context.Context) ([]domain.AstroRecord, error) { return s.getAll() }
func (s *stubRecords) Update(_ context.Context, id int, in domain.AstroRecordInput) (*domain.AstroRecord, error) {
	return s.update(id, in)
}
func (s *stubRecords) Delete(_ context.Context, id int) error { return s.delete(id) }
func (s *stubRecords) GetByPlaceID(_ context.Context, placeID int) ([]domain.AstroRecord, error) {
	return s.byPlaceID(placeID)
}
func (s *stubRecords) GetByDateAndPlaceName(_ context.Context, date domain.Date, name string) ([]domain.AstroRecord, error) {
	return s.byDateAndName(date, name)
}

func newTestServer(places *stubPlaces, records *stubRecords) *Server {
	return New(places, records, zap.NewNop(), observability.NewNoop())
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubPlaces{}, &stubRecords{})
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"enrichment down", enrichment.ErrUnavailable, http.StatusServiceUnavailable},
		{"store failure", &domain.StoreError{Op: "get", Err: errors.New("conn reset")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places := &stubPlaces{getByID: func(int) (*domain.Place, error) { return nil, tt.err }}
			srv := newTestServer(places, &stubRecords{})

			rec := do(t, srv, http.MethodGet, "/locations/1", "")
			require.Equal(t, tt.want, rec.Code)
			require.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetPlace(t *testing.T) {
	places := &stubPlaces{getByID: func(id int) (*domain.Place, error) {
		return &domain.Place{ID: id, Name: "Paris", Country: "France", RecordIDs: []int{3}}, nil
	}}
	srv := newTestServer(places, &stubRecords{})

	rec := do(t, srv, http.MethodGet, "/locations/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":7,"name":"Paris","country":"France","record_ids":[3]}`, rec.Body.String())
}

func TestPathIDValidation(t *testing.T) {
	srv := newTestServer(&stubPlaces{}, &stubRecords{})

	for _, target := range []string{"/locations/abc", "/locations/0", "/locations/-4"} {
		rec := do(t, srv, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestCreatePlace(t *testing.T) {
	var got domain.PlaceInput
	places := &stubPlaces{create: func(in domain.PlaceInput) (*domain.Place, error) {
		got = in
		return &domain.Place{ID: 1, Name: in.Name, RecordIDs: []int{}}, nil
	}}
	srv := newTestServer(places, &stubRecords{})

	rec := do(t, srv, http.MethodPost, "/locations/", `{"name":"Paris","record_ids":[2,3]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Paris", got.Name)
	require.NotNil(t, got.RecordIDs)
	require.Equal(t, []int{2, 3}, *got.RecordIDs)
}

func TestCreatePlaceBadJSON(t *testing.T) {
	srv := newTestServer(&stubPlaces{}, &stubRecords{})

	rec := do(t, srv, http.MethodPost, "/locations/", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "bad json")

	rec = do(t, srv, http.MethodPost, "/locations/", `{"name":"x","bogus":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePlaceOmittedRelationsStayNil(t *testing.T) {
	var got domain.PlaceInput
	places := &stubPlaces{update: func(id int, in domain.PlaceInput) (*domain.Place, error) {
		got = in
		return &domain.Place{ID: id, Name: in.Name}, nil
	}}
	srv := newTestServer(places, &stubRecords{})

	rec := do(t, srv, http.MethodPut, "/locations/1", `{"name":"Paris"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, got.RecordIDs, "an omitted record_ids field must decode to nil, not empty")

	rec = do(t, srv, http.MethodPut, "/locations/1", `{"name":"Paris","record_ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.RecordIDs)
	require.Empty(t, *got.RecordIDs)
}

func TestDeletePlace(t *testing.T) {
	deleted := 0
	places := &stubPlaces{delete: func(id int) error {
		deleted = id
		return nil
	}}
	srv := newTestServer(places, &stubRecords{})

	rec := do(t, srv, http.MethodDelete, "/locations/5", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 5, deleted)
	require.Empty(t, rec.Body.String())
}

func TestCreateRecord(t *testing.T) {
	records := &stubRecords{create: func(in domain.AstroRecordInput) (*domain.AstroRecord, error) {
		return &domain.AstroRecord{
			ID:       1,
			Date:     in.Date,
			Sunrise:  time.Date(2025, time.June, 4, 3, 49, 0, 0, time.UTC),
			Sunset:   time.Date(2025, time.June, 4, 19, 55, 0, 0, time.UTC),
			PlaceIDs: []int{},
		}, nil
	}}
	srv := newTestServer(&stubPlaces{}, records)

	rec := do(t, srv, http.MethodPost, "/sun/times/", `{"date":"2025-06-04","latitude":48.8566,"longitude":2.3522}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"date":"2025-06-04"`)
	require.Contains(t, rec.Body.String(), "2025-06-04T03:49:00Z")
}

func TestRecordRoutesDoNotShadow(t *testing.T) {
	records := &stubRecords{
		getAll: func() ([]domain.AstroRecord, error) { return []domain.AstroRecord{}, nil },
		byPlaceID: func(placeID int) ([]domain.AstroRecord, error) {
			require.Equal(t, 9, placeID)
			return []domain.AstroRecord{}, nil
		},
		getByID: func(id int) (*domain.AstroRecord, error) {
			return &domain.AstroRecord{ID: id}, nil
		},
	}
	srv := newTestServer(&stubPlaces{}, records)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sun/times/all", "").Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sun/times/location/9", "").Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sun/times/12", "").Code)
}

func TestGetRecordsByDateAndName(t *testing.T) {
	var gotDate domain.Date
	var gotName string
	records := &stubRecords{byDateAndName: func(date domain.Date, name string) ([]domain.AstroRecord, error) {
		gotDate, gotName = date, name
		return []domain.AstroRecord{{ID: 1, Date: date}}, nil
	}}
	srv := newTestServer(&stubPlaces{}, records)

	rec := do(t, srv, http.MethodGet, "/sun/times/by-date-and-location?date=2025-06-04&locationName=Paris", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2025-06-04", gotDate.String())
	require.Equal(t, "Paris", gotName)

	// malformed or missing date never reaches the service
	rec = do(t, srv, http.MethodGet, "/sun/times/by-date-and-location?date=June+4&locationName=Paris", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, srv, http.MethodGet, "/sun/times/by-date-and-location?locationName=Paris", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerTimingMiddlewareReportsRequests(t *testing.T) {
	places := &stubPlaces{getByID: func(int) (*domain.Place, error) { return nil, domain.ErrNotFound }}
	metrics := observability.NewInmem(16)
	srv := New(places, &stubRecords{}, zap.NewNop(), metrics)

	rec := do(t, srv, http.MethodGet, "/locations/3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	last := metrics.Last()
	require.Len(t, last, 1)
	obs, ok := last[0].(struct {
		Kind, Method, Route string
		Status              int
		DurMs               float64
	})
	require.True(t, ok)
	require.Equal(t, "http", obs.Kind)
	require.Equal(t, http.MethodGet, obs.Method)
	require.Equal(t, "/locations/3", obs.Route)
	require.Equal(t, http.StatusNotFound, obs.Status)
}
