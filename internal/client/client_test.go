package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	testutil.SkipIfNoNetwork(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com", "::nope"} {
		_, err := New(raw)
		require.Error(t, err, raw)
		require.True(t, errors.Is(err, models.ErrInvalidArgument), raw)
	}
}

func TestFetchSubjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/subjects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":"a1","name":"Ana","cpf":"111","active":true,"last_verified_date":"01/03/2025","verify_frequency_in_days":10},
			{"id":"b2","name":"Bia","cpf":"222","active":false,"last_verified_date":"2025/01/01","verify_frequency_in_days":30}
		]`)
	})

	subjects, err := c.FetchSubjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Subject{
		{ID: "a1", Name: "Ana", CPF: "111", Active: true, LastVerifiedDate: "01/03/2025", VerifyFrequencyInDays: 10},
		{ID: "b2", Name: "Bia", CPF: "222", Active: false, LastVerifiedDate: "2025/01/01", VerifyFrequencyInDays: 30},
	}, subjects)
}

func TestFetchSubjectsNullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})
	subjects, err := c.FetchSubjects(context.Background())
	require.NoError(t, err)
	require.NotNil(t, subjects)
	require.Empty(t, subjects)
}

func TestRecordVisitRemoteSendsPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/subjects/a 1", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body models.VisitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2025/03/09 14:30:05", body.LastVerifiedDate)

		_ = json.NewEncoder(w).Encode(models.Subject{ID: "a 1", Name: "Ana", CPF: "111", Active: true, LastVerifiedDate: body.LastVerifiedDate, VerifyFrequencyInDays: 10})
	})

	updated, err := c.RecordVisitRemote(context.Background(), "a 1", "2025/03/09 14:30:05")
	require.NoError(t, err)
	require.Equal(t, "2025/03/09 14:30:05", updated.LastVerifiedDate)
}

func TestServiceErrorBecomesTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"not_found","message":"subject x1 not found"}`)
	})

	_, err := c.RecordVisitRemote(context.Background(), "x1", "2025/03/09 14:30:05")
	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, OpRecordVisit, te.Op)
	require.Equal(t, http.StatusNotFound, te.StatusCode)
	require.Equal(t, "not_found", te.Code)
	require.True(t, errors.Is(err, models.ErrNotFound))
	require.Contains(t, err.Error(), "subject x1 not found")
}

func TestPlainTextErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.FetchSubjects(context.Background())
	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusBadGateway, te.StatusCode)
	require.Empty(t, te.Code)
	require.Contains(t, err.Error(), "upstream exploded")
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":`)
	})
	_, err := c.FetchSubject(context.Background(), "a1")
	require.True(t, models.IsTransport(err))
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	testutil.SkipIfNoNetwork(t)
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = c.FetchSubjects(context.Background())
	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	require.Zero(t, te.StatusCode)
	require.Equal(t, OpFetch, te.Op)
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchSubjects(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.True(t, models.IsTransport(err))
}

func TestImportSubjectsPosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in []models.Subject
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		for i := range in {
			if in[i].ID == "" {
				in[i].ID = "generated"
			}
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})

	stored, err := c.ImportSubjects(context.Background(), []models.Subject{{Name: "Ana", CPF: "111", LastVerifiedDate: "01/03/2025"}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "generated", stored[0].ID)
}
