package contracts

import (
	"encoding/json"
	"time"
)

// PayloadType names a persisted payload family
type PayloadType string

const (
	PayloadMarket   PayloadType = "market"
	PayloadFutures  PayloadType = "futures"
	PayloadNews     PayloadType = "news"
	PayloadBasis    PayloadType = "basis"
	PayloadAnalysis PayloadType = "analysis"
	PayloadQuality  PayloadType = "quality"
	PayloadMacro    PayloadType = "macro"
)

// PayloadTypes lists every payload family
var PayloadTypes = []PayloadType{
	PayloadMarket, PayloadFutures, PayloadNews, PayloadBasis, PayloadAnalysis, PayloadQuality,
	PayloadMacro,
}

// DateLayout is the civil date format used in file names, keys and routes
const DateLayout = "2006-01-02"

// Envelope wraps every persisted payload. Consumers only read Data.
type Envelope struct {
	Date      string          `json:"date"`
	Type      PayloadType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals Data into v
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}
