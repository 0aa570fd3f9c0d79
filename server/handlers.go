package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/requests"
	"github.com/labstack/echo/v4"
)

// maxCreateBody bounds a create request body
const maxCreateBody = 64 << 10

// StatusOf maps an error code onto its HTTP status
func StatusOf(code projfs.ErrorCode) int {
	switch code {
	case projfs.CodeNotFound:
		return http.StatusNotFound
	case projfs.CodeAlreadyExists:
		return http.StatusConflict
	case projfs.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// list handles GET /api/list?dir=<rel>. A missing dir lists the root.
func (s *Server) list(c echo.Context) error {
	l, err := s.backend.List(c.Request().Context(), c.QueryParam("dir"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, requests.NewListResponse(l))
}

// create handles POST /api/create with a {currentDir, input} body
func (s *Server) create(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCreateBody))
	if err != nil {
		return badRequest(c, "failed to read request body: "+err.Error())
	}
	req, err := requests.UnmarshalCreateRequest(body)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := s.backend.Create(c.Request().Context(), req.CurrentDir, req.Input)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, requests.NewCreateResponse(created))
}

// fail writes err in the failure shape with its code. Internal errors are
// also logged.
func (s *Server) fail(c echo.Context, err error) error {
	dto := requests.NewErrorResponse(err)
	if dto.Code == projfs.CodeInternal {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Operation failed")
	}
	return c.JSON(StatusOf(dto.Code), dto)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, requests.ErrorResponseDTO{Error: msg, Code: projfs.CodeBadRequest})
}

// handleHTTPError renders router and middleware errors in the API's
// failure shape.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	code := projfs.CodeBadRequest
	if status >= http.StatusInternalServerError {
		code = projfs.CodeInternal
		s.logger.Error().Err(err).Msg("Unhandled error")
	}

	dto := requests.ErrorResponseDTO{Error: msg, Code: code}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, dto)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write error response")
	}
}
