// Date check HTTP handlers.
//
// This file exposes the oracle round trip:
//   - POST /checks               (requestDateCheck)
//   - POST /oracle/fulfillments  (fulfillDateCheck, responders only)
//   - GET  /requests/{id}        (request status)
//
// Idempotency:
// When the client supplies an Idempotency-Key header and a previous check
// exists for (account, key), the original request is returned, no second
// fee is paid, and `Idempotency-Replayed: true` is set.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/http/middleware"
	"github.com/tbourn/rentald/internal/services"
)

//
// DTOs
//

// RequestDateCheckRequest is the JSON payload for a date check.
type RequestDateCheckRequest struct {
	// JobID is the oracle job spec id; the configured job is used when empty.
	JobID string `json:"job_id" example:"0x3339623734376536306461643434643462323965356262336263353833386232"`
	// Date is up to 32 bytes of text, or 0x-prefixed hex of the raw bytes.
	Date string `json:"date" example:"2019-01-02"`
	// Region is up to 32 bytes of text, or 0x-prefixed hex of the raw bytes.
	Region string `json:"region" example:"AU-QLD"`
}

// RequestDateCheckResponse identifies the issued oracle request.
type RequestDateCheckResponse struct {
	RequestID string `json:"request_id" example:"0x8f5a6c2e0b7d3f41e9a0c6b15d2e7f3a9c4b8d1e6f205a7b3c9d0e4f1a2b6c8d"`
	ExpiresAt int64  `json:"expires_at" example:"1546387500"`
}

// FulfillDateCheckRequest is the oracle's answer to an outstanding request.
type FulfillDateCheckRequest struct {
	RequestID string `json:"request_id" binding:"required" example:"0x8f5a6c2e0b7d3f41e9a0c6b15d2e7f3a9c4b8d1e6f205a7b3c9d0e4f1a2b6c8d"`
	// Data is the bytes32 classification, e.g. "1" or its 0x hex.
	Data string `json:"data" example:"0x3100000000000000000000000000000000000000000000000000000000000000"`
}

// RequestResponse is an oracle request together with its date.
type RequestResponse struct {
	*domain.OracleRequest
	DateView
}

//
// Handlers
//

// RequestDateCheck godoc
// @ID          requestDateCheck
// @Summary     Ask the oracle to classify a date
// @Description Pays the oracle fee from the contract's LINK balance and issues a request.
// @Description Supports idempotency via the Idempotency-Key header (same key → same request).
// @Tags        Checks
// @Accept      json
// @Produce     json
//
// @Param       X-Account        header  string  false "Caller account"  example(0x00000000000000000000000000000000000000aa)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.RequestDateCheckRequest  true  "Date check payload"
//
// @Success     202  {object}  handlers.RequestDateCheckResponse
// @Header      202  {string}  Idempotency-Replayed  "true when an earlier request was returned"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "Contract lacks LINK for the fee"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /checks [post]
func (h *Handlers) RequestDateCheck(c *gin.Context) {
	var req RequestDateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	idemKey, _ := middleware.GetIdempotencyKey(c)

	res, err := h.svc.RequestDateCheck(c.Request.Context(), services.CheckInput{
		Caller:         account(c),
		JobID:          strings.TrimSpace(req.JobID),
		Date:           req.Date,
		Region:         req.Region,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		failService(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusAccepted, RequestDateCheckResponse{
		RequestID: res.Request.ID,
		ExpiresAt: res.Request.ExpiresAt.Unix(),
	})
}

// FulfillDateCheck godoc
// @ID          fulfillDateCheck
// @Summary     Deliver the oracle answer
// @Description Records the classification for an outstanding request and pays the rent
// @Description when the date qualifies and was not paid before. Responder accounts only.
// @Tags        Checks
// @Accept      json
// @Produce     json
//
// @Param       X-Account  header  string  true  "Responder account"  example(0x0000000000000000000000000000000000000aac)
// @Param       body       body    handlers.FulfillDateCheckRequest  true  "Oracle answer"
//
// @Success     204  {string}  string "No Content"
// @Header      204  {string}  Rent-Payment  "paid, already_paid or not_qualifying"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "Contract cannot pay the rent"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a responder"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown request"
// @Failure     409  {object}  handlers.ErrorResponse  "Already fulfilled or expired"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /oracle/fulfillments [post]
func (h *Handlers) FulfillDateCheck(c *gin.Context) {
	var req FulfillDateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request_id required")
		return
	}

	res, err := h.svc.FulfillDateCheck(c.Request.Context(), account(c), strings.TrimSpace(req.RequestID), req.Data)
	if err != nil {
		failService(c, err)
		return
	}
	c.Header("Rent-Payment", res.Payment.String())
	noContent(c)
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get an oracle request
// @Tags        Checks
// @Produce     json
//
// @Param       id  path  string  true  "Request ID (0x hex)"
//
// @Success     200  {object}  handlers.RequestResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.svc.Request(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RequestResponse{OracleRequest: req, DateView: dateView(req.Date())})
}
