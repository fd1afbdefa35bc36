package types

import "strings"

// OperationKind classifies a gated pool call.
type OperationKind int

const (
	OperationDeposit OperationKind = iota + 1
	OperationWithdraw
	OperationSwap
)

var operationNames = map[OperationKind]string{
	OperationDeposit:  "deposit",
	OperationWithdraw: "withdraw",
	OperationSwap:     "swap",
}

func (o OperationKind) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// Validate rejects kinds outside the known set.
func (o OperationKind) Validate() error {
	if _, ok := operationNames[o]; !ok {
		return ErrInvalidOperation.Wrapf("operation kind %d", int(o))
	}
	return nil
}

// ParseOperationKind maps a name to its kind.
func ParseOperationKind(s string) (OperationKind, error) {
	for kind, name := range operationNames {
		if strings.EqualFold(s, name) {
			return kind, nil
		}
	}
	return 0, ErrInvalidOperation.Wrapf("unknown operation %q", s)
}
