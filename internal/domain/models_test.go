package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(ContractState{}).TableName(): "contract_state",
		(Balance{}).TableName():       "balances",
		(OracleRequest{}).TableName(): "oracle_requests",
		(BusinessDay{}).TableName():   "business_days",
		(PaidDate{}).TableName():      "paid_dates",
		(Event{}).TableName():         "events",
		(Idempotency{}).TableName():   "idempotency_keys",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	all := []any{&ContractState{}, &Balance{}, &OracleRequest{}, &BusinessDay{}, &PaidDate{}, &Event{}, &Idempotency{}}
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range all {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&OracleRequest{}, "idx_req_status_exp") {
		t.Fatalf("expected index idx_req_status_exp on oracle_requests")
	}
	if !m.HasIndex(&Idempotency{}, "idx_idempotency_keys_expires_at") {
		t.Fatalf("expected expiry index on idempotency_keys")
	}
}

func TestIdempotency_Live(t *testing.T) {
	exp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Idempotency{ExpiresAt: exp}
	if !rec.Live(exp.Add(-time.Nanosecond)) || rec.Live(exp) || rec.Live(exp.Add(time.Second)) {
		t.Fatal("a binding is live strictly before its expiry")
	}
}

func TestPaidDate_PrimaryKeyIsTheGuard(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&PaidDate{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	row := PaidDate{DateKey: Bytes32("2019-01-02").Key(), Amount: decimal.NewFromInt(1), Beneficiary: "owner", RequestID: "0x01"}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	dup := row
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("second insert for the same date must fail")
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Balance{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	want := decimal.RequireFromString("1000000000000000000000") // 1000 ether, beyond int64
	if err := db.Create(&Balance{Account: "c", Asset: AssetNative, Amount: want, UpdatedAt: time.Now()}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Balance
	if err := db.First(&got, "account = ? AND asset = ?", "c", AssetNative).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Amount.Equal(want) {
		t.Fatalf("amount = %s; want %s", got.Amount, want)
	}
}

func TestOracleRequest_Date(t *testing.T) {
	r := OracleRequest{DateKey: Bytes32("2019-01-02").Key()}
	if r.Date() != "2019-01-02" {
		t.Fatalf("Date() = %q", r.Date())
	}
}

func TestParseBytes32(t *testing.T) {
	cases := []struct {
		in      string
		want    Bytes32
		wantErr error
	}{
		{"2019-01-02", "2019-01-02", nil},
		{"0x323031392d30312d3032", "2019-01-02", nil},
		{"0X323031392D30312D3032", "2019-01-02", nil},
		{"0x3100000000000000000000000000000000000000000000000000000000000000", "1", nil},
		{"", "", nil},
		{"0xzz", "", ErrBadHex},
		{strings.Repeat("a", 33), "", ErrBytes32TooLong},
		{"2019-1-2", "2019-1-2", nil},
	}
	for _, tc := range cases {
		got, err := ParseBytes32(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("ParseBytes32(%q) err = %v; want %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseBytes32(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestBytes32_Encodings(t *testing.T) {
	d := Bytes32("2019-01-02")
	if d.Key() != "323031392d30312d3032" {
		t.Fatalf("Key() = %q", d.Key())
	}
	if d.Hex() != "0x323031392d30312d3032" {
		t.Fatalf("Hex() = %q", d.Hex())
	}
	if Bytes32FromKey(d.Key()) != d {
		t.Fatalf("Bytes32FromKey did not invert Key")
	}
	if Bytes32FromKey("not-hex") != "" {
		t.Fatalf("malformed key should decode to empty")
	}
	p := Bytes32("1").Padded()
	if p[0] != '1' || p[1] != 0 || p[31] != 0 {
		t.Fatalf("Padded() = %v", p)
	}
	if !Bytes32("").IsEmpty() || d.IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}

func TestParseAssetAndAmount(t *testing.T) {
	if a, err := ParseAsset(" eth "); err != nil || a != AssetNative {
		t.Fatalf("ParseAsset(eth) = %v, %v", a, err)
	}
	if a, err := ParseAsset("LINK"); err != nil || a != AssetFeeToken {
		t.Fatalf("ParseAsset(LINK) = %v, %v", a, err)
	}
	if _, err := ParseAsset("BTC"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("ParseAsset(BTC) err = %v", err)
	}

	if d, err := ParseAmount("2000000"); err != nil || !d.Equal(decimal.NewFromInt(2000000)) {
		t.Fatalf("ParseAmount = %v, %v", d, err)
	}
	for _, bad := range []string{"-1", "1.5", "abc", ""} {
		if _, err := ParseAmount(bad); !errors.Is(err, ErrBadAmount) {
			t.Fatalf("ParseAmount(%q) err = %v; want ErrBadAmount", bad, err)
		}
	}

	rent := decimal.New(1, 16)
	if ToTokens(rent).String() != "0.01" {
		t.Fatalf("ToTokens = %s", ToTokens(rent))
	}
}
