// Package services – RentalService
//
// This file implements RentalService, the contract instance. It owns the
// request lifecycle (request, fulfill, expire), the date result cache, the
// paid-date guard and the owner-gated configuration. Every entry point takes
// the service mutex and runs in a single database transaction, so calls are
// serialized and all-or-nothing. Events written during a call are forwarded
// to the broker only after the transaction committed.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/datecache"
	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/events"
	"github.com/tbourn/rentald/internal/ledger"
	"github.com/tbourn/rentald/internal/observability"
	"github.com/tbourn/rentald/internal/oracle"
	"github.com/tbourn/rentald/internal/payment"
	"github.com/tbourn/rentald/internal/repo"
	"github.com/tbourn/rentald/internal/utils"
)

const tracerName = "services/RentalService"

// Options fixes the contract instance at construction.
type Options struct {
	Address     string
	Owner       string
	FeeToken    string
	Oracle      string
	Responders  []string
	JobID       string
	Fee         decimal.Decimal
	RequestTTL  time.Duration
	InitialRent decimal.Decimal
	// IdempotencyTTL bounds how long an Idempotency-Key replays.
	IdempotencyTTL time.Duration
}

// RentalService is the rental contract.
type RentalService struct {
	DB        *gorm.DB
	Ledger    *ledger.Ledger
	Dates     *datecache.Cache
	Payments  *payment.Engine
	Publisher events.Publisher

	opts       Options
	responders map[string]struct{}

	mu  sync.Mutex
	now func() time.Time
}

// NewRentalService constructs the contract. On first start it writes the
// configuration row; afterwards the stored owner, addresses and rent win and
// a configuration mismatch is only logged.
func NewRentalService(ctx context.Context, db *gorm.DB, dates *datecache.Cache, payments *payment.Engine, pub events.Publisher, opts Options) (*RentalService, error) {
	if !opts.Fee.IsPositive() {
		return nil, fmt.Errorf("request fee must be positive, got %s", opts.Fee)
	}
	if strings.EqualFold(opts.Address, opts.Oracle) {
		return nil, errors.New("contract and oracle addresses must differ")
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.RequestTTL <= 0 {
		opts.RequestTTL = 5 * time.Minute
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	st, created, err := repo.InitState(ctx, db, domain.ContractState{
		Address:      strings.ToLower(opts.Address),
		Owner:        strings.ToLower(opts.Owner),
		FeeToken:     strings.ToLower(opts.FeeToken),
		Oracle:       strings.ToLower(opts.Oracle),
		RentalAmount: opts.InitialRent,
	})
	if err != nil {
		return nil, err
	}
	if created {
		log.Info().Str("contract", st.Address).Str("owner", st.Owner).Msg("contract constructed")
	} else if !strings.EqualFold(st.Owner, opts.Owner) {
		log.Warn().Str("stored_owner", st.Owner).Str("configured_owner", opts.Owner).
			Msg("configured owner differs from stored owner; stored owner kept")
	}

	s := &RentalService{
		DB:         db,
		Ledger:     ledger.New(),
		Dates:      dates,
		Payments:   payments,
		Publisher:  pub,
		opts:       opts,
		responders: make(map[string]struct{}, len(opts.Responders)),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, r := range opts.Responders {
		s.responders[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	if payments == nil {
		s.Payments = payment.NewEngine(s.Ledger, payment.DefaultQualifying)
	}
	if n, err := repo.CountPending(ctx, db); err == nil {
		observability.PendingRequests.Set(float64(n))
	}
	return s, nil
}

// CheckInput is a requestDateCheck call.
type CheckInput struct {
	Caller string
	// JobID is the oracle job spec id; empty uses the configured job.
	JobID  string
	Date   string
	Region string
	// IdempotencyKey, when set, makes a retry with the same caller and key
	// return the original request instead of paying a second fee.
	IdempotencyKey string
}

// CheckResult is the outcome of RequestDateCheck.
type CheckResult struct {
	Request  *domain.OracleRequest
	Replayed bool
}

// RequestDateCheck asks the oracle whether date is a payment day in region.
// It debits the request fee, issues a request id, records the outstanding
// request and the current date, and emits ChainlinkRequested and
// OracleRequest.
func (s *RentalService) RequestDateCheck(ctx context.Context, in CheckInput) (*CheckResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "RequestDateCheck",
		trace.WithAttributes(attribute.String("region", in.Region)))
	defer span.End()

	date, region, jobID, err := s.validateCheck(in)
	if err != nil {
		observability.OracleRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res     CheckResult
		emitted []domain.Event
	)
	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IdempotencyKey != "" {
			rec, err := repo.GetIdempotency(ctx, tx, in.Caller, in.IdempotencyKey, now)
			if err == nil {
				req, err := repo.GetRequest(ctx, tx, rec.RequestID)
				if err != nil {
					return err
				}
				res = CheckResult{Request: req, Replayed: true}
				return nil
			}
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
		}

		st, err := repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.Ledger.Transfer(ctx, tx, domain.AssetFeeToken, st.Address, st.Oracle, s.opts.Fee); err != nil {
			return err
		}
		nonce, err := repo.NextNonce(ctx, tx)
		if err != nil {
			return err
		}
		req := &domain.OracleRequest{
			ID:        oracle.RequestID(st.Address, nonce),
			JobID:     jobID,
			DateKey:   date.Key(),
			Region:    region.String(),
			Requester: st.Address,
			Nonce:     nonce,
			Payment:   s.opts.Fee,
			ExpiresAt: now.Add(s.opts.RequestTTL),
		}
		if err := repo.CreateRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := repo.SetCurrentDate(ctx, tx, req.DateKey); err != nil {
			return err
		}

		data, err := oracle.NewRequestData(date, region).Encode()
		if err != nil {
			return err
		}
		ev1, err := repo.AppendEvent(ctx, tx, oracle.EventChainlinkRequested, req.ID, oracle.IDEvent{ID: req.ID})
		if err != nil {
			return err
		}
		ev2, err := repo.AppendEvent(ctx, tx, oracle.EventOracleRequest, req.ID, oracle.RequestEvent{
			Topic:              oracle.OracleRequestTopic,
			SpecID:             jobID,
			Requester:          st.Address,
			RequestID:          req.ID,
			Payment:            s.opts.Fee.String(),
			CallbackAddr:       st.Address,
			CallbackFunctionID: oracle.FulfillSelector,
			CancelExpiration:   req.ExpiresAt.Unix(),
			DataVersion:        oracle.DataVersion,
			Data:               oracle.HexData(data),
		})
		if err != nil {
			return err
		}
		emitted = append(emitted, *ev1, *ev2)

		if in.IdempotencyKey != "" {
			if _, err := repo.BindIdempotency(ctx, tx, in.Caller, in.IdempotencyKey, req.ID, now, s.opts.IdempotencyTTL); err != nil {
				return err
			}
		}
		res = CheckResult{Request: req}
		return nil
	})
	if err != nil {
		observability.OracleRequests.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	if res.Replayed {
		return &res, nil
	}

	observability.OracleRequests.WithLabelValues("issued").Inc()
	observability.PendingRequests.Inc()
	log.Ctx(ctx).Info().Str("request_id", res.Request.ID).Str("region", res.Request.Region).Msg("date check requested")
	s.publish(ctx, emitted)
	return &res, nil
}

func (s *RentalService) validateCheck(in CheckInput) (date, region domain.Bytes32, jobID string, err error) {
	date, err = domain.ParseBytes32(in.Date)
	if err != nil {
		return "", "", "", invalid("date: " + err.Error())
	}
	region, err = domain.ParseBytes32(in.Region)
	if err != nil {
		return "", "", "", invalid("region: " + err.Error())
	}
	if region.IsEmpty() {
		return "", "", "", ErrRegionRequired
	}
	if date.IsEmpty() {
		return "", "", "", ErrDateRequired
	}
	raw := in.JobID
	if strings.TrimSpace(raw) == "" {
		raw = s.opts.JobID
	}
	job, err := domain.ParseBytes32(raw)
	if err != nil {
		return "", "", "", invalid("job_id: " + err.Error())
	}
	if job.IsEmpty() {
		return "", "", "", invalid("job_id must be set")
	}
	padded := job.Padded()
	return date, region, domain.Bytes32(padded[:]).Hex(), nil
}

// FulfillResult is the outcome of FulfillDateCheck.
type FulfillResult struct {
	RequestID      string
	Date           domain.Bytes32
	Classification string
	Payment        payment.Outcome
}

// FulfillDateCheck records the oracle's answer for an outstanding request
// and runs the payment engine. The classification, the fulfilled status and
// any payment commit together; when the contract cannot pay the rent,
// nothing is written and the request stays pending.
func (s *RentalService) FulfillDateCheck(ctx context.Context, caller, requestID, data string) (*FulfillResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "FulfillDateCheck")
	defer span.End()

	if !s.IsResponder(caller) {
		observability.OracleFulfillments.WithLabelValues("unauthorized").Inc()
		return nil, ErrUnauthorized
	}
	response, err := domain.ParseBytes32(data)
	if err != nil {
		observability.OracleFulfillments.WithLabelValues("invalid").Inc()
		return nil, invalid("data: " + err.Error())
	}
	id := oracle.NormalizeID(requestID)
	span.SetAttributes(attribute.String("request.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res     FulfillResult
		emitted []domain.Event
	)
	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := repo.GetRequest(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownRequest
		}
		if err != nil {
			return err
		}
		switch {
		case req.Status == domain.RequestFulfilled:
			return ErrAlreadyFulfilled
		case req.Status == domain.RequestExpired, !now.Before(req.ExpiresAt):
			return ErrRequestExpired
		}

		date := req.Date()
		stored, err := s.Dates.Put(ctx, tx, date, response, req.ID)
		if err != nil {
			return err
		}
		if err := repo.MarkFulfilled(ctx, tx, req.ID, response.Hex(), now); err != nil {
			if errors.Is(err, repo.ErrNotPending) {
				return ErrAlreadyFulfilled
			}
			return err
		}
		ev, err := repo.AppendEvent(ctx, tx, oracle.EventChainlinkFulfilled, req.ID, oracle.IDEvent{ID: req.ID})
		if err != nil {
			return err
		}
		emitted = append(emitted, *ev)

		st, err := repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		outcome, paidEv, err := s.Payments.MaybePay(ctx, tx, st, date, stored, req.ID)
		if err != nil {
			return err
		}
		if paidEv != nil {
			emitted = append(emitted, *paidEv)
		}
		res = FulfillResult{RequestID: req.ID, Date: date, Classification: stored, Payment: outcome}
		return nil
	})
	if err != nil {
		observability.OracleFulfillments.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	s.Dates.Remember(res.Date, res.Classification)
	observability.OracleFulfillments.WithLabelValues("accepted").Inc()
	observability.RentPayments.WithLabelValues(res.Payment.String()).Inc()
	observability.PendingRequests.Dec()
	log.Ctx(ctx).Info().
		Str("request_id", res.RequestID).
		Str("classification", res.Classification).
		Str("payment", res.Payment.String()).
		Msg("date check fulfilled")
	s.publish(ctx, emitted)
	return &res, nil
}

// IsResponder reports whether caller may fulfill requests.
func (s *RentalService) IsResponder(caller string) bool {
	_, ok := s.responders[strings.ToLower(strings.TrimSpace(caller))]
	return ok
}

// SetRentalAmount changes the rent paid per qualifying date. Owner only.
func (s *RentalService) SetRentalAmount(ctx context.Context, caller string, amount decimal.Decimal) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SetRentalAmount")
	defer span.End()

	if amount.IsNegative() || !amount.IsInteger() {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var emitted []domain.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(caller), st.Owner) {
			return ErrUnauthorized
		}
		if err := repo.UpdateRentalAmount(ctx, tx, amount); err != nil {
			return err
		}
		ev, err := repo.AppendEvent(ctx, tx, oracle.EventRentalAmountChanged, "", oracle.RentalAmountChangedEvent{
			Previous: st.RentalAmount.String(),
			Amount:   amount.String(),
		})
		if err != nil {
			return err
		}
		emitted = append(emitted, *ev)
		return nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("amount", amount.String()).Msg("rental amount changed")
	s.publish(ctx, emitted)
	return nil
}

// RentalAmount returns the rent paid per qualifying date.
func (s *RentalService) RentalAmount(ctx context.Context) (decimal.Decimal, error) {
	st, err := repo.GetState(ctx, s.DB)
	if err != nil {
		return decimal.Zero, err
	}
	return st.RentalAmount, nil
}

// CurrentDate returns the date of the most recent check, empty before any.
func (s *RentalService) CurrentDate(ctx context.Context) (domain.Bytes32, error) {
	st, err := repo.GetState(ctx, s.DB)
	if err != nil {
		return "", err
	}
	return domain.Bytes32FromKey(st.CurrentDate), nil
}

// State returns the contract configuration row.
func (s *RentalService) State(ctx context.Context) (*domain.ContractState, error) {
	return repo.GetState(ctx, s.DB)
}

// DateStatus is the public view of one date.
type DateStatus struct {
	Date               domain.Bytes32
	BusinessDayOfMonth string
	Paid               bool
}

// DateStatus returns the classification and paid flag for a wire-form date.
// Never-requested dates are empty and unpaid.
func (s *RentalService) DateStatus(ctx context.Context, rawDate string) (*DateStatus, error) {
	date, err := domain.ParseBytes32(rawDate)
	if err != nil {
		return nil, invalid("date: " + err.Error())
	}
	if date.IsEmpty() {
		return nil, ErrDateRequired
	}
	cls, err := s.Dates.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	paid, err := repo.IsPaid(ctx, s.DB, date.Key())
	if err != nil {
		return nil, err
	}
	return &DateStatus{Date: date, BusinessDayOfMonth: cls, Paid: paid}, nil
}

// BusinessDayOfMonth returns the stored classification, "" when unknown.
func (s *RentalService) BusinessDayOfMonth(ctx context.Context, rawDate string) (string, error) {
	st, err := s.DateStatus(ctx, rawDate)
	if err != nil {
		return "", err
	}
	return st.BusinessDayOfMonth, nil
}

// PaidDates reports whether rent was paid for the date.
func (s *RentalService) PaidDates(ctx context.Context, rawDate string) (bool, error) {
	st, err := s.DateStatus(ctx, rawDate)
	if err != nil {
		return false, err
	}
	return st.Paid, nil
}

// Request returns an oracle request by id.
func (s *RentalService) Request(ctx context.Context, id string) (*domain.OracleRequest, error) {
	req, err := repo.GetRequest(ctx, s.DB, oracle.NormalizeID(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnknownRequest
	}
	return req, err
}

// Fund credits the contract with externally supplied funds.
func (s *RentalService) Fund(ctx context.Context, caller string, asset domain.Asset, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Fund",
		trace.WithAttributes(attribute.String("asset", string(asset))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		balance decimal.Decimal
		emitted []domain.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		balance, err = s.Ledger.Deposit(ctx, tx, asset, st.Address, amount)
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return ErrInvalidAmount
		}
		if err != nil {
			return err
		}
		ev, err := repo.AppendEvent(ctx, tx, oracle.EventFunded, "", oracle.FundedEvent{
			Asset:   string(asset),
			Amount:  amount.String(),
			Balance: balance.String(),
		})
		if err != nil {
			return err
		}
		emitted = append(emitted, *ev)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	log.Ctx(ctx).Info().Str("asset", string(asset)).Str("amount", amount.String()).Str("from", caller).Msg("contract funded")
	s.publish(ctx, emitted)
	return balance, nil
}

// Balances returns every ledger position of the contract.
func (s *RentalService) Balances(ctx context.Context) ([]domain.Balance, error) {
	st, err := repo.GetState(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return repo.ListBalances(ctx, s.DB, st.Address)
}

// EventsPage returns a page of the event log, optionally of one name.
func (s *RentalService) EventsPage(ctx context.Context, name string, page, pageSize int) ([]domain.Event, int64, error) {
	p := utils.NewPage(page, pageSize, 50, 200)
	total, err := repo.CountEvents(ctx, s.DB, name)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Event{}, 0, nil
	}
	items, err := repo.ListEventsPage(ctx, s.DB, name, p.Offset(), p.Size)
	return items, total, err
}

// EventsStats returns the count and last sequence number for ETags.
func (s *RentalService) EventsStats(ctx context.Context, name string) (int64, uint64, error) {
	return repo.EventsStats(ctx, s.DB, name)
}

// publish forwards committed events to the broker.
func (s *RentalService) publish(ctx context.Context, evs []domain.Event) {
	if len(evs) == 0 {
		return
	}
	events.Forward(context.WithoutCancel(ctx), s.Publisher, evs, specIDOf, observability.PublishResult)
}

// specIDOf routes OracleRequest events by job so nodes can filter.
func specIDOf(ev domain.Event) string {
	if ev.Name != oracle.EventOracleRequest {
		return ""
	}
	var body oracle.RequestEvent
	if err := json.Unmarshal([]byte(ev.Payload), &body); err != nil {
		return ""
	}
	return body.SpecID
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUnknownRequest):
		return "unknown"
	case errors.Is(err, ErrAlreadyFulfilled):
		return "duplicate"
	case errors.Is(err, ErrRequestExpired):
		return "expired"
	}
	return "error"
}
