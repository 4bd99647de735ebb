// Event log HTTP handler.
//
//   - GET /events   (paginated, optional ?name= filter, weak ETag)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rentald/internal/domain"
)

// ListEventsResponse wraps a page of events and pagination information.
type ListEventsResponse struct {
	Events     []domain.Event `json:"events"`
	Pagination Pagination     `json:"pagination"`
}

// ListEvents godoc
// @ID          listEvents
// @Summary     List contract events (paginated)
// @Description Returns events in emission order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Events
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"events::1:50:3:3\")
// @Param       name           query   string  false "Event name filter"            example(RentPaid)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.ListEventsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /events [get]
func (h *Handlers) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()
	name := strings.TrimSpace(c.Query("name"))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxSeq, err := h.svc.EventsStats(ctx, name); err == nil {
		etag := fmt.Sprintf(`W/"events:%s:%d:%d:%d:%d"`, name, page, pageSize, count, maxSeq)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.svc.EventsPage(ctx, name, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Event{}
	}
	ok(c, http.StatusOK, ListEventsResponse{
		Events:     items,
		Pagination: newPagination(page, pageSize, total),
	})
}
