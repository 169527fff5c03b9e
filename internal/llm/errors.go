package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/promoforge/promoforge/internal/types"
)

// TranslateError maps a provider-level failure into a ForgeError with the
// MODEL_CALL_FAILED code, preserving the cause and marking transient
// conditions (timeouts, rate limits, 5xx) as retryable.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf("%s call failed", provider)

	if isTransient(err) {
		fe := types.NewRetryableError(types.MODEL_CALL_FAILED, msg)
		fe.Cause = err
		return fe
	}

	return types.WrapError(types.MODEL_CALL_FAILED, msg, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	s := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"429",
		"timeout",
		"temporarily",
		"overloaded",
		"503",
		"502",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
