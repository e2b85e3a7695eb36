package arl

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
)

// InvalidRuleError reports an antecedent/consequent split whose metrics cannot be computed.
type InvalidRuleError struct {
	Reason      string
	Antecedents []string
	Consequents []string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule {%s} → {%s}: %s",
		strings.Join(e.Antecedents, ", "),
		strings.Join(e.Consequents, ", "),
		e.Reason)
}

// Unwrap lets callers match the error with errors.Is(err, common.ErrInvalidRule).
func (e *InvalidRuleError) Unwrap() error {
	return common.ErrInvalidRule
}
