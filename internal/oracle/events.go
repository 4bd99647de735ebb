package oracle

// Event names stored in the event log.
const (
	EventChainlinkRequested  = "ChainlinkRequested"
	EventOracleRequest       = "OracleRequest"
	EventChainlinkFulfilled  = "ChainlinkFulfilled"
	EventChainlinkCancelled  = "ChainlinkCancelled"
	EventRentPaid            = "RentPaid"
	EventRentalAmountChanged = "RentalAmountChanged"
	EventFunded              = "Funded"
)

// IDEvent carries only a request id (ChainlinkRequested, ChainlinkFulfilled,
// ChainlinkCancelled).
type IDEvent struct {
	ID string `json:"id"`
}

// RequestEvent is the OracleRequest log an oracle node subscribes to.
type RequestEvent struct {
	Topic              string `json:"topic"`
	SpecID             string `json:"specId"`
	Requester          string `json:"requester"`
	RequestID          string `json:"requestId"`
	Payment            string `json:"payment"`
	CallbackAddr       string `json:"callbackAddr"`
	CallbackFunctionID string `json:"callbackFunctionId"`
	CancelExpiration   int64  `json:"cancelExpiration"`
	DataVersion        int    `json:"dataVersion"`
	Data               string `json:"data"`
}

// RentPaidEvent records a released payment.
type RentPaidEvent struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	To     string `json:"to"`
}

// RentalAmountChangedEvent records an owner update of the rent.
type RentalAmountChangedEvent struct {
	Previous string `json:"previous"`
	Amount   string `json:"amount"`
}

// FundedEvent records an external deposit.
type FundedEvent struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"`
}
