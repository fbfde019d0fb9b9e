package contracts

import (
	"errors"
	"fmt"
)

// ErrInvalidContractType is returned for any contract type outside the three
// listed maturities. It is a programmer error and is never retried.
var ErrInvalidContractType = errors.New("invalid contract type")

// ContractType identifies one of the simultaneously listed index-futures maturities
// ⭐ SSOT: 当月 / 下季 / 隔季
type ContractType string

const (
	CurrentMonth ContractType = "current_month" // 当月
	NextQuarter  ContractType = "next_quarter"  // 下季
	FarQuarter   ContractType = "far_quarter"   // 隔季
)

// ContractTypes is the fixed discovery order used by the basis engine and validators
var ContractTypes = []ContractType{CurrentMonth, NextQuarter, FarQuarter}

var contractLabels = map[ContractType]string{
	CurrentMonth: "当月",
	NextQuarter:  "下季",
	FarQuarter:   "隔季",
}

// Valid reports whether c is one of the listed maturities
func (c ContractType) Valid() bool {
	_, ok := contractLabels[c]
	return ok
}

// Label returns the exchange label (当月/下季/隔季)
func (c ContractType) Label() string {
	if l, ok := contractLabels[c]; ok {
		return l
	}
	return string(c)
}

// String returns the canonical identifier
func (c ContractType) String() string {
	return string(c)
}

// MarshalText implements encoding.TextMarshaler so ContractType works as a JSON map key
func (c ContractType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContractType, string(c))
	}
	return []byte(c), nil
}

// UnmarshalText accepts both the canonical identifier and the exchange label
func (c *ContractType) UnmarshalText(b []byte) error {
	ct, err := ParseContractType(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// ParseContractType parses "current_month" or "当月" style values
func ParseContractType(s string) (ContractType, error) {
	ct := ContractType(s)
	if ct.Valid() {
		return ct, nil
	}
	for k, label := range contractLabels {
		if label == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidContractType, s)
}
