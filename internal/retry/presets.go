package retry

import "time"

// Kind names a collection task with its own I/O timeout hint
type Kind string

const (
	KindMarket  Kind = "market"
	KindFutures Kind = "futures"
	KindNews    Kind = "news"
)

// ⭐ SSOT: 작업별 타임아웃 힌트 (재시도 규칙은 동일)
var presetTimeouts = map[Kind]time.Duration{
	KindMarket:  15 * time.Second,
	KindFutures: 60 * time.Second,
	KindNews:    20 * time.Second,
}

// For returns a copy of p carrying the timeout hint for kind.
// Unknown kinds use the market hint.
func (p Policy) For(kind Kind) Policy {
	timeout, ok := presetTimeouts[kind]
	if !ok {
		timeout = presetTimeouts[KindMarket]
	}
	p.Timeout = timeout
	return p
}

// Preset returns the default policy for kind
func Preset(kind Kind) Policy {
	return Default().For(kind)
}
