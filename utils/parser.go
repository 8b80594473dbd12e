package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JASSBR/invoice-usdc-base/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParseVerificationRequest parses a JSON payment claim and validates it.
// All four fields are required; anything missing fails before any further
// processing.
func ParseVerificationRequest(data []byte) (*types.VerificationRequest, error) {
	var req types.VerificationRequest

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &types.PaymentError{
			Code:    types.ErrInvalidInput,
			Message: fmt.Sprintf("failed to parse verification request: %v", err),
		}
	}

	// Validate using struct tags
	if err := validate.Struct(&req); err != nil {
		return nil, &types.PaymentError{
			Code:    types.ErrMissingFields,
			Message: "Missing required fields",
		}
	}

	return &req, nil
}

// SerializeVerificationResult converts a VerificationResult to JSON.
func SerializeVerificationResult(result *types.VerificationResult) ([]byte, error) {
	return json.Marshal(result)
}
