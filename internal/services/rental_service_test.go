package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rentald/internal/datecache"
	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/oracle"
	"github.com/tbourn/rentald/internal/payment"
	"github.com/tbourn/rentald/internal/repo"
)

const (
	CONTRACT = "0x00000000000000000000000000000000000c0a7c"
	OWNER    = "0x00000000000000000000000000000000000000aa"
	STRANGER = "0x00000000000000000000000000000000000000bb"
	ORACLE   = "0x0000000000000000000000000000000000000aac"
	TOKEN    = "0x00000000000000000000000000000000000001c4"
	JOB      = "0x3864393964306461373930323461363062663532393236656466343135346339"
)

var (
	oneEther = decimal.New(1, 18)
	oneLink  = decimal.New(1, 18)
	rent     = decimal.New(1, 16) // 0.01 ether
	fee      = decimal.New(1, 17) // 0.1 LINK
)

type capture struct {
	mu   sync.Mutex
	subs []string
}

func (c *capture) Publish(_ context.Context, subject string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, subject)
	return nil
}

func (c *capture) Close() error { return nil }

func (c *capture) subjects() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subs...)
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func newService(t *testing.T, db *gorm.DB, pub *capture) *RentalService {
	t.Helper()
	cache, err := datecache.New(db, 0)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	s, err := NewRentalService(context.Background(), db, cache, nil, pub, Options{
		Address:     CONTRACT,
		Owner:       OWNER,
		FeeToken:    TOKEN,
		Oracle:      ORACLE,
		Responders:  []string{ORACLE},
		JobID:       JOB,
		Fee:         fee,
		RequestTTL:  5 * time.Minute,
		InitialRent: rent,
	})
	require.NoError(t, err)
	return s
}

// fundedService returns a contract holding 1 ether and 1 LINK.
func fundedService(t *testing.T) (*RentalService, *capture) {
	t.Helper()
	pub := &capture{}
	s := newService(t, newDB(t), pub)
	ctx := context.Background()
	_, err := s.Fund(ctx, OWNER, domain.AssetNative, oneEther)
	require.NoError(t, err)
	_, err = s.Fund(ctx, OWNER, domain.AssetFeeToken, oneLink)
	require.NoError(t, err)
	return s, pub
}

func balance(t *testing.T, s *RentalService, asset domain.Asset, account string) decimal.Decimal {
	t.Helper()
	b, err := s.Ledger.BalanceOf(context.Background(), s.DB, asset, account)
	require.NoError(t, err)
	return b
}

func check(t *testing.T, s *RentalService, date, region string) string {
	t.Helper()
	res, err := s.RequestDateCheck(context.Background(), CheckInput{Caller: OWNER, JobID: JOB, Date: date, Region: region})
	require.NoError(t, err)
	return res.Request.ID
}

func TestConstruction(t *testing.T) {
	s := newService(t, newDB(t), &capture{})
	ctx := context.Background()

	amount, err := s.RentalAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", amount.String(), "initial rent is 0.01 ether")

	cur, err := s.CurrentDate(ctx)
	require.NoError(t, err)
	assert.True(t, cur.IsEmpty(), "no current date before the first check")

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, OWNER, st.Owner)
	assert.Equal(t, ORACLE, st.Oracle)
	assert.Equal(t, TOKEN, st.FeeToken)
}

func TestConstruction_StoredOwnerWins(t *testing.T) {
	db := newDB(t)
	_ = newService(t, db, &capture{})

	cache, err := datecache.New(db, 0)
	require.NoError(t, err)
	defer cache.Close()
	s2, err := NewRentalService(context.Background(), db, cache, nil, nil, Options{
		Address: CONTRACT, Owner: STRANGER, Oracle: ORACLE, Fee: fee, InitialRent: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	st, err := s2.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OWNER, st.Owner, "owner is fixed at first construction")
	assert.True(t, st.RentalAmount.Equal(rent), "stored rent is kept")
	assert.ErrorIs(t, s2.SetRentalAmount(context.Background(), STRANGER, decimal.NewFromInt(5)), ErrUnauthorized)
}

func TestConstruction_RejectsFreeOrSelfPaidRequests(t *testing.T) {
	cases := map[string]Options{
		"zero fee":      {Address: CONTRACT, Owner: OWNER, Oracle: ORACLE, Fee: decimal.Zero},
		"negative fee":  {Address: CONTRACT, Owner: OWNER, Oracle: ORACLE, Fee: decimal.NewFromInt(-1)},
		"oracle itself": {Address: CONTRACT, Owner: OWNER, Oracle: CONTRACT, Fee: fee},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			db := newDB(t)
			s, err := NewRentalService(context.Background(), db, nil, nil, nil, opts)
			require.Error(t, err)
			assert.Nil(t, s)

			var n int64
			require.NoError(t, db.Model(&domain.ContractState{}).Count(&n).Error)
			assert.Zero(t, n, "no contract is constructed")
		})
	}
}

func TestNeverRequestedDate(t *testing.T) {
	s, _ := fundedService(t)
	st, err := s.DateStatus(context.Background(), "2019-01-02")
	require.NoError(t, err)
	assert.Equal(t, "", st.BusinessDayOfMonth)
	assert.False(t, st.Paid)
}

// Scenario A: a first business day is paid once.
func TestScenarioA_QualifyingDatePays(t *testing.T) {
	s, pub := fundedService(t)
	ctx := context.Background()

	id := check(t, s, "2019-01-02", "AU-QLD")
	cur, _ := s.CurrentDate(ctx)
	assert.Equal(t, domain.Bytes32("2019-01-02"), cur)
	assert.True(t, balance(t, s, domain.AssetFeeToken, CONTRACT).Equal(oneLink.Sub(fee)), "fee debited")
	assert.True(t, balance(t, s, domain.AssetFeeToken, ORACLE).Equal(fee), "fee credited to oracle")

	res, err := s.FulfillDateCheck(ctx, ORACLE, id, "1")
	require.NoError(t, err)
	assert.Equal(t, payment.Paid, res.Payment)

	cls, err := s.BusinessDayOfMonth(ctx, "2019-01-02")
	require.NoError(t, err)
	assert.Equal(t, "1", cls)
	paid, err := s.PaidDates(ctx, "2019-01-02")
	require.NoError(t, err)
	assert.True(t, paid)

	assert.True(t, balance(t, s, domain.AssetNative, CONTRACT).Equal(oneEther.Sub(rent)), "balance = 1 ether - rent")
	assert.True(t, balance(t, s, domain.AssetNative, OWNER).Equal(rent), "owner received rent")

	req, err := s.Request(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, req.Status)

	assert.Contains(t, pub.subjects(), "oracle.requests."+JOB[2:], "OracleRequest routed by job")
	assert.Contains(t, pub.subjects(), "contract.events.rentpaid")
}

// Scenario B: a non-qualifying classification pays nothing.
func TestScenarioB_NonQualifyingDate(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	id := check(t, s, "2019-01-03", "AU-QLD")
	res, err := s.FulfillDateCheck(ctx, ORACLE, id, "2")
	require.NoError(t, err)
	assert.Equal(t, payment.NotQualifying, res.Payment)

	st, err := s.DateStatus(ctx, "2019-01-03")
	require.NoError(t, err)
	assert.Equal(t, "2", st.BusinessDayOfMonth)
	assert.False(t, st.Paid)
	assert.True(t, balance(t, s, domain.AssetNative, CONTRACT).Equal(oneEther), "balance unchanged")
}

// Scenario C: only the owner sets the rent.
func TestScenarioC_OwnerSetsRent(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	require.NoError(t, s.SetRentalAmount(ctx, OWNER, decimal.NewFromInt(2000000)))
	amount, _ := s.RentalAmount(ctx)
	assert.Equal(t, "2000000", amount.String())

	assert.ErrorIs(t, s.SetRentalAmount(ctx, STRANGER, decimal.NewFromInt(1)), ErrUnauthorized)
	amount, _ = s.RentalAmount(ctx)
	assert.Equal(t, "2000000", amount.String(), "amount unchanged after rejected call")

	assert.ErrorIs(t, s.SetRentalAmount(ctx, OWNER, decimal.NewFromInt(-1)), ErrInvalidArgument)
	require.NoError(t, s.SetRentalAmount(ctx, OWNER, decimal.Zero), "zero rent is allowed")

	n, _ := repo.CountEvents(ctx, s.DB, oracle.EventRentalAmountChanged)
	assert.Equal(t, int64(2), n)
}

// Scenario D: an empty region is rejected before any state change.
func TestScenarioD_EmptyRegion(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	_, err := s.RequestDateCheck(ctx, CheckInput{Caller: OWNER, Date: "2019-01-02", Region: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegionRequired)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "Region must be set.", err.Error())

	assert.True(t, balance(t, s, domain.AssetFeeToken, CONTRACT).Equal(oneLink), "no fee consumed")
	n, _ := repo.CountPending(ctx, s.DB)
	assert.Zero(t, n, "no request created")
	cur, _ := s.CurrentDate(ctx)
	assert.True(t, cur.IsEmpty())
}

func TestRequestDateCheck_Validation(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	_, err := s.RequestDateCheck(ctx, CheckInput{Region: "AU-QLD"})
	assert.ErrorIs(t, err, ErrDateRequired)

	_, err = s.RequestDateCheck(ctx, CheckInput{Date: "2019-01-02-and-a-lot-more-than-32-bytes", Region: "AU"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.RequestDateCheck(ctx, CheckInput{Date: "0xzz", Region: "AU"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRequestDateCheck_WithoutLinkFails(t *testing.T) {
	s := newService(t, newDB(t), &capture{})
	ctx := context.Background()
	_, err := s.Fund(ctx, OWNER, domain.AssetNative, oneEther)
	require.NoError(t, err)

	_, err = s.RequestDateCheck(ctx, CheckInput{Caller: OWNER, Date: "2019-01-02", Region: "AU-QLD"})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	n, _ := repo.CountPending(ctx, s.DB)
	assert.Zero(t, n, "no request created")
	st, _ := s.State(ctx)
	assert.Equal(t, uint64(0), st.Nonce, "nonce not consumed")
	assert.Equal(t, "", st.CurrentDate)
}

func TestRequestDateCheck_UniqueIDsAndDefaultJob(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	a, err := s.RequestDateCheck(ctx, CheckInput{Date: "2019-02-01", Region: "US"})
	require.NoError(t, err)
	b, err := s.RequestDateCheck(ctx, CheckInput{Date: "2019-02-01", Region: "US"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Request.ID, b.Request.ID)
	assert.Equal(t, oracle.RequestID(CONTRACT, 0), a.Request.ID)
	assert.Equal(t, oracle.RequestID(CONTRACT, 1), b.Request.ID)
	assert.Equal(t, JOB, a.Request.JobID, "configured job used when none is given")
}

func TestRequestDateCheck_EmitsOracleRequest(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	id := check(t, s, "2019-01-02", "AU-QLD")

	evs, err := repo.ListEventsByRequest(ctx, s.DB, id)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, oracle.EventChainlinkRequested, evs[0].Name)
	assert.Equal(t, oracle.EventOracleRequest, evs[1].Name)
	assert.Contains(t, evs[1].Payload, oracle.FulfillSelector)
	assert.Contains(t, evs[1].Payload, oracle.OracleRequestTopic)
}

func TestRequestDateCheck_Idempotent(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	in := CheckInput{Caller: OWNER, Date: "2019-01-02", Region: "AU-QLD", IdempotencyKey: "retry-1"}

	first, err := s.RequestDateCheck(ctx, in)
	require.NoError(t, err)
	second, err := s.RequestDateCheck(ctx, in)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Request.ID, second.Request.ID)
	assert.True(t, balance(t, s, domain.AssetFeeToken, CONTRACT).Equal(oneLink.Sub(fee)), "fee paid once")

	in.Caller = STRANGER
	third, err := s.RequestDateCheck(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.Request.ID, third.Request.ID, "keys are scoped per caller")
}

func TestRequestDateCheck_KeyReusableAfterExpiry(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	s.now = func() time.Time { return now }
	in := CheckInput{Caller: OWNER, Date: "2019-01-02", Region: "AU-QLD", IdempotencyKey: "retry-1"}

	first, err := s.RequestDateCheck(ctx, in)
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(25 * time.Hour) }
	second, err := s.RequestDateCheck(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.Replayed, "an expired key starts a new request")
	assert.NotEqual(t, first.Request.ID, second.Request.ID)

	rec, err := repo.GetIdempotency(ctx, s.DB, OWNER, "retry-1", now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, second.Request.ID, rec.RequestID, "binding rewritten in place")

	// the sweep drops the binding once it lapses again
	s.now = func() time.Time { return now.Add(50 * time.Hour) }
	_, err = s.ExpireRequests(ctx)
	require.NoError(t, err)
	var left int64
	require.NoError(t, s.DB.Model(&domain.Idempotency{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestFulfill_Twice(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	id := check(t, s, "2019-01-02", "AU-QLD")

	_, err := s.FulfillDateCheck(ctx, ORACLE, id, "1")
	require.NoError(t, err)
	_, err = s.FulfillDateCheck(ctx, ORACLE, id, "1")
	assert.ErrorIs(t, err, ErrAlreadyFulfilled)

	assert.True(t, balance(t, s, domain.AssetNative, CONTRACT).Equal(oneEther.Sub(rent)), "paid exactly once")
}

func TestFulfill_SecondRequestForPaidDate(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()

	first := check(t, s, "2019-01-02", "AU-QLD")
	_, err := s.FulfillDateCheck(ctx, ORACLE, first, "1")
	require.NoError(t, err)

	second := check(t, s, "2019-01-02", "AU-QLD")
	res, err := s.FulfillDateCheck(ctx, ORACLE, second, "1")
	require.NoError(t, err)
	assert.Equal(t, payment.AlreadyPaid, res.Payment)

	third := check(t, s, "2019-01-02", "AU-QLD")
	res, err = s.FulfillDateCheck(ctx, ORACLE, third, "7")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Classification, "first write wins")

	assert.True(t, balance(t, s, domain.AssetNative, CONTRACT).Equal(oneEther.Sub(rent)))
}

func TestFulfill_Unauthorized(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	id := check(t, s, "2019-01-02", "AU-QLD")

	_, err := s.FulfillDateCheck(ctx, STRANGER, id, "1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	req, _ := s.Request(ctx, id)
	assert.Equal(t, domain.RequestPending, req.Status)
	cls, _ := s.BusinessDayOfMonth(ctx, "2019-01-02")
	assert.Equal(t, "", cls)
}

func TestFulfill_UnknownRequest(t *testing.T) {
	s, _ := fundedService(t)
	_, err := s.FulfillDateCheck(context.Background(), ORACLE, "0xdeadbeef", "1")
	assert.ErrorIs(t, err, ErrUnknownRequest)
}

func TestFulfill_InsufficientBalanceRollsBack(t *testing.T) {
	s := newService(t, newDB(t), &capture{})
	ctx := context.Background()
	_, err := s.Fund(ctx, OWNER, domain.AssetFeeToken, oneLink)
	require.NoError(t, err)
	id := check(t, s, "2019-01-02", "AU-QLD")

	_, err = s.FulfillDateCheck(ctx, ORACLE, id, "1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	st, err := s.DateStatus(ctx, "2019-01-02")
	require.NoError(t, err)
	assert.Equal(t, "", st.BusinessDayOfMonth, "classification rolled back")
	assert.False(t, st.Paid)
	req, _ := s.Request(ctx, id)
	assert.Equal(t, domain.RequestPending, req.Status, "request stays pending")

	// funding and retrying completes the payment
	_, err = s.Fund(ctx, OWNER, domain.AssetNative, oneEther)
	require.NoError(t, err)
	res, err := s.FulfillDateCheck(ctx, ORACLE, id, "1")
	require.NoError(t, err)
	assert.Equal(t, payment.Paid, res.Payment)
}

func TestExpiry_RefundsAndRejectsLateFulfillment(t *testing.T) {
	s, pub := fundedService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	s.now = func() time.Time { return now }

	id := check(t, s, "2019-01-02", "AU-QLD")
	keep := check(t, s, "2019-01-03", "AU-QLD")

	n, err := s.ExpireRequests(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing due yet")

	// age the first request only
	require.NoError(t, s.DB.Model(&domain.OracleRequest{}).Where("id = ?", id).
		Update("expires_at", now.Add(-time.Second)).Error)

	n, err = s.ExpireRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	req, _ := s.Request(ctx, id)
	assert.Equal(t, domain.RequestExpired, req.Status)
	other, _ := s.Request(ctx, keep)
	assert.Equal(t, domain.RequestPending, other.Status)

	assert.True(t, balance(t, s, domain.AssetFeeToken, CONTRACT).Equal(oneLink.Sub(fee)), "one fee refunded")
	assert.True(t, balance(t, s, domain.AssetFeeToken, ORACLE).Equal(fee))

	_, err = s.FulfillDateCheck(ctx, ORACLE, id, "1")
	assert.ErrorIs(t, err, ErrRequestExpired)
	assert.Contains(t, pub.subjects(), "contract.events.chainlinkcancelled")
}

func TestFulfill_PastExpirationBeforeSweep(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	s.now = func() time.Time { return now }
	id := check(t, s, "2019-01-02", "AU-QLD")

	s.now = func() time.Time { return now.Add(10 * time.Minute) }
	_, err := s.FulfillDateCheck(ctx, ORACLE, id, "1")
	assert.ErrorIs(t, err, ErrRequestExpired)
}

func TestExpiryWorker_StopsOnCancel(t *testing.T) {
	s, _ := fundedService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&ExpiryWorker{Service: s, Interval: 5 * time.Millisecond}).Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.NoError(t, (&ExpiryWorker{Service: s}).Run(context.Background()), "zero interval is a no-op")
}

func TestDateEncodings(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	id := check(t, s, "0x323031392d30312d3032", "AU-QLD")
	_, err := s.FulfillDateCheck(ctx, ORACLE, id, "0x31")
	require.NoError(t, err)

	for _, form := range []string{"2019-01-02", "0x323031392d30312d3032", "0x323031392d30312d303200000000"} {
		st, err := s.DateStatus(ctx, form)
		require.NoError(t, err)
		assert.True(t, st.Paid, "form %q names the same date", form)
	}
	st, err := s.DateStatus(ctx, "2019-1-2")
	require.NoError(t, err)
	assert.False(t, st.Paid, "no normalization beyond padding")
}

func TestFund_Validation(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	_, err := s.Fund(ctx, OWNER, domain.AssetNative, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bal, err := s.Fund(ctx, OWNER, domain.AssetNative, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000005", bal.String())

	list, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEventsPage(t *testing.T) {
	s, _ := fundedService(t)
	ctx := context.Background()
	check(t, s, "2019-01-02", "AU-QLD")

	items, total, err := s.EventsPage(ctx, "", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total, "two Funded, ChainlinkRequested, OracleRequest")
	assert.Len(t, items, 3)

	items, total, err = s.EventsPage(ctx, oracle.EventOracleRequest, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	count, maxSeq, err := s.EventsStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, uint64(4), maxSeq)
}
