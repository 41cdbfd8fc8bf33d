package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed docs/openapi.json
var openAPIDoc []byte

//go:embed docs/swagger.html
var swaggerPage []byte

func (s *Server) docsHandler(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, swaggerPage)
}

func (s *Server) openAPIHandler(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, openAPIDoc)
}
