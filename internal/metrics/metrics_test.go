package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/internal/mocks"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, "already_exists", Outcome(fmt.Errorf("create a: %w", projfs.ErrAlreadyExists)))
	assert.Equal(t, "internal", Outcome(fmt.Errorf("boom")))
}

func TestInstrument_CountsByOutcome(t *testing.T) {
	backend := &mocks.MockBackend{}
	backend.On("List", mock.Anything, ".").Return(&projfs.Listing{Dir: "."}, nil)
	backend.On("List", mock.Anything, "missing").Return(nil, projfs.ErrNotFound)
	backend.On("Create", mock.Anything, ".", "a.txt").Return(&projfs.Created{Kind: projfs.KindFile, Path: "a.txt"}, nil)

	listOK := testutil.ToFloat64(OperationsTotal.WithLabelValues("list", OutcomeOK))
	listMissing := testutil.ToFloat64(OperationsTotal.WithLabelValues("list", "not_found"))
	createOK := testutil.ToFloat64(OperationsTotal.WithLabelValues("create", OutcomeOK))
	files := testutil.ToFloat64(EntriesCreatedTotal.WithLabelValues("file"))

	b := Instrument(backend)
	ctx := context.Background()
	_, err := b.List(ctx, ".")
	require.NoError(t, err)
	_, err = b.List(ctx, "missing")
	assert.ErrorIs(t, err, projfs.ErrNotFound)
	c, err := b.Create(ctx, ".", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", c.Path)

	assert.Equal(t, listOK+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("list", OutcomeOK)))
	assert.Equal(t, listMissing+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("list", "not_found")))
	assert.Equal(t, createOK+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("create", OutcomeOK)))
	assert.Equal(t, files+1, testutil.ToFloat64(EntriesCreatedTotal.WithLabelValues("file")))
	backend.AssertExpectations(t)
}

func TestEchoMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(EchoMiddleware())
	e.GET("/probe", func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/probe", "418"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/probe", "418")))
}
