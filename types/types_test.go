package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goodHash    = "0x9b1f122e235cb50e9a49f1f3ca18c0ffbf4fa38f07e85db12f42ab09e7e15a50"
	goodAddress = "0x384Aa214be0B279cbf211e9b2C992d8633F77848"
)

func validRequest() *VerificationRequest {
	return &VerificationRequest{
		TxHash:            goodHash,
		ExpectedAmount:    "5000000",
		ExpectedRecipient: goodAddress,
		InvoiceID:         "inv-001",
	}
}

func TestVerificationRequest_Validate(t *testing.T) {
	require.NoError(t, validRequest().Validate())
}

func TestVerificationRequest_ValidateMissing(t *testing.T) {
	mutations := []func(*VerificationRequest){
		func(r *VerificationRequest) { r.TxHash = "" },
		func(r *VerificationRequest) { r.ExpectedAmount = "" },
		func(r *VerificationRequest) { r.ExpectedRecipient = "" },
		func(r *VerificationRequest) { r.InvoiceID = "" },
	}

	for _, mutate := range mutations {
		req := validRequest()
		mutate(req)

		err := req.Validate()
		require.Error(t, err)

		pe, ok := err.(*PaymentError)
		require.True(t, ok)
		assert.Equal(t, ErrMissingFields, pe.Code)
	}
}

func TestVerificationRequest_ValidateMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*VerificationRequest)
	}{
		{"short hash", func(r *VerificationRequest) { r.TxHash = "0xabc" }},
		{"hash without prefix", func(r *VerificationRequest) { r.TxHash = goodHash[2:] + "00" }},
		{"short address", func(r *VerificationRequest) { r.ExpectedRecipient = "0x1234" }},
		{"non-hex address", func(r *VerificationRequest) {
			r.ExpectedRecipient = "0xZZZZa214be0B279cbf211e9b2C992d8633F77848"
		}},
		{"decimal amount", func(r *VerificationRequest) { r.ExpectedAmount = "5.0" }},
		{"negative amount", func(r *VerificationRequest) { r.ExpectedAmount = "-5" }},
		{"hex amount", func(r *VerificationRequest) { r.ExpectedAmount = "0x10" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate()
			require.Error(t, err)

			pe, ok := err.(*PaymentError)
			require.True(t, ok)
			assert.Equal(t, ErrInvalidInput, pe.Code)
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress(goodAddress, goodAddress))
	assert.True(t, SameAddress(goodAddress, "0x384aa214be0b279cbf211e9b2c992d8633f77848"))
	assert.True(t, SameAddress("0x384AA214BE0B279CBF211E9B2C992D8633F77848", goodAddress))
	assert.False(t, SameAddress(goodAddress, "0x384Aa214be0B279cbf211e9b2C992d8633F77849"))
}

func TestPaymentError_Retryable(t *testing.T) {
	retryable := []string{ErrTxNotFound, ErrTransientRead}
	for _, code := range retryable {
		assert.True(t, (&PaymentError{Code: code}).Retryable(), code)
	}

	definitive := []string{
		ErrMissingFields, ErrInvalidInput, ErrTxFailed, ErrWrongContract,
		ErrNoTransferEvent, ErrRecipientMismatch, ErrAmountMismatch, ErrInternal,
	}
	for _, code := range definitive {
		assert.False(t, (&PaymentError{Code: code}).Retryable(), code)
	}
}

func TestChainConfig_Validate(t *testing.T) {
	cfg := DefaultBaseSepolia()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.RPCUrl = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.TokenAddress = "nope"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.TokenDecimals = 0
	assert.Error(t, bad.Validate())
}

func TestChainConfig_ExplorerURLs(t *testing.T) {
	cfg := DefaultBaseSepolia()
	assert.Equal(t, BaseSepoliaExplorer+"/tx/"+goodHash, cfg.TxURL(goodHash))
	assert.Equal(t, BaseSepoliaExplorer+"/address/"+goodAddress, cfg.AddressURL(goodAddress))
}
