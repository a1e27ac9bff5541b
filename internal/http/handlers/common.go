package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"medspa/internal/domain"
	"medspa/internal/http/middleware"
	"medspa/internal/services"
	"medspa/internal/utils"

	"github.com/gin-gonic/gin"
)

// hasBody reports whether the request may carry a body. Chunked requests
// report ContentLength -1, so only a known-empty body counts as absent.
func hasBody(c *gin.Context) bool {
	return c.Request.Body != nil && c.Request.Body != http.NoBody && c.Request.ContentLength != 0
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if !hasBody(c) {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", err.Error())
		return false
	}
	return true
}

// pathID reads a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// queryInt64 returns 0 for a missing value and ok=false for a malformed one.
func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		respondError(c, http.StatusBadRequest, "invalid_query", name+" must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

func pagination(c *gin.Context) (domain.Pagination, bool) {
	page, ok := queryInt64(c, "page")
	if !ok {
		return domain.Pagination{}, false
	}
	size, ok := queryInt64(c, "page_size")
	if !ok {
		return domain.Pagination{}, false
	}
	return domain.Pagination{Page: int(page), PageSize: int(size)}.Normalize(), true
}

// dateRange parses from/to (YYYY-MM-DD, both inclusive) into a half-open range.
func dateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	from, to, err := utils.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_query", err.Error(), nil)
		return nil, nil, false
	}
	return from, to, true
}

// actor builds the audit identity of the caller.
func actor(c *gin.Context) services.Actor {
	p, _ := middleware.GetPrincipal(c)
	return services.Actor{Principal: p, IP: c.ClientIP()}
}

func sendPDF(c *gin.Context, data []byte, filename, disposition string) {
	c.Header("Content-Disposition", disposition+`; filename="`+filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}
