// Contract HTTP handlers.
//
// This file exposes the contract configuration and funding endpoints:
//   - GET  /rent            (getRentalAmount)
//   - PUT  /rent            (setRentalAmount, owner only)
//   - GET  /current-date    (date of the most recent check)
//   - GET  /dates/{date}    (businessDayOfMonth + paidDates)
//   - POST /funding         (deposit ETH or LINK into the contract)
//   - GET  /balances        (contract and counterpart balances)
//
// Amounts travel as decimal strings of base units (wei).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rentald/internal/domain"
)

// RentResponse is the rent paid per qualifying date.
type RentResponse struct {
	// Amount in wei.
	Amount string `json:"amount" example:"10000000000000000"`
	// Ether is Amount expressed in whole ether.
	Ether string `json:"ether" example:"0.01"`
}

// SetRentRequest is the JSON payload for changing the rent.
type SetRentRequest struct {
	Amount string `json:"amount" binding:"required" example:"2000000"`
}

// DateStatusResponse is the classification and paid flag of one date.
type DateStatusResponse struct {
	DateView
	BusinessDayOfMonth string `json:"business_day_of_month" example:"1"`
	Paid               bool   `json:"paid"`
}

// FundRequest deposits funds into the contract.
type FundRequest struct {
	Asset  string `json:"asset"  binding:"required" example:"ETH" enums:"ETH,LINK"`
	Amount string `json:"amount" binding:"required" example:"1000000000000000000"`
}

// BalancesResponse lists ledger positions.
type BalancesResponse struct {
	Balances []domain.Balance `json:"balances"`
}

// GetRentalAmount godoc
// @ID          getRentalAmount
// @Summary     Get the rent per qualifying date
// @Tags        Contract
// @Produce     json
// @Success     200  {object}  handlers.RentResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rent [get]
func (h *Handlers) GetRentalAmount(c *gin.Context) {
	amt, err := h.svc.RentalAmount(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RentResponse{Amount: amt.String(), Ether: domain.ToTokens(amt).String()})
}

// SetRentalAmount godoc
// @ID          setRentalAmount
// @Summary     Change the rent per qualifying date
// @Description Owner only. Takes effect for every payment made afterwards.
// @Tags        Contract
// @Accept      json
// @Produce     json
//
// @Param       X-Account  header  string  true  "Owner account"
// @Param       body       body    handlers.SetRentRequest  true  "New rent in wei"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not the owner"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rent [put]
func (h *Handlers) SetRentalAmount(c *gin.Context) {
	var req SetRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount required")
		return
	}
	amt, err := domain.ParseAmount(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := h.svc.SetRentalAmount(c.Request.Context(), account(c), amt); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// GetCurrentDate godoc
// @ID          getCurrentDate
// @Summary     Get the date of the most recent check
// @Description Empty before the first check.
// @Tags        Contract
// @Produce     json
// @Success     200  {object}  handlers.DateView
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /current-date [get]
func (h *Handlers) GetCurrentDate(c *gin.Context) {
	d, err := h.svc.CurrentDate(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, dateView(d))
}

// GetDateStatus godoc
// @ID          getDateStatus
// @Summary     Get the classification and paid flag of a date
// @Description Dates that were never answered have an empty classification and are unpaid.
// @Tags        Contract
// @Produce     json
// @Param       date  path  string  true  "Date text or 0x hex"  example(2019-01-02)
// @Success     200  {object}  handlers.DateStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dates/{date} [get]
func (h *Handlers) GetDateStatus(c *gin.Context) {
	st, err := h.svc.DateStatus(c.Request.Context(), c.Param("date"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, DateStatusResponse{
		DateView:           dateView(st.Date),
		BusinessDayOfMonth: st.BusinessDayOfMonth,
		Paid:               st.Paid,
	})
}

// Fund godoc
// @ID          fund
// @Summary     Deposit ETH or LINK into the contract
// @Tags        Contract
// @Accept      json
// @Produce     json
//
// @Param       X-Account  header  string  false "Depositing account"
// @Param       body       body    handlers.FundRequest  true  "Deposit"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /funding [post]
func (h *Handlers) Fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset and amount required")
		return
	}
	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "asset must be ETH or LINK")
		return
	}
	amt, err := domain.ParseAmount(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if _, err := h.svc.Fund(c.Request.Context(), account(c), asset, amt); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListBalances godoc
// @ID          listBalances
// @Summary     List ledger balances
// @Tags        Contract
// @Produce     json
// @Success     200  {object}  handlers.BalancesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /balances [get]
func (h *Handlers) ListBalances(c *gin.Context) {
	items, err := h.svc.Balances(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Balance{}
	}
	ok(c, http.StatusOK, BalancesResponse{Balances: items})
}
