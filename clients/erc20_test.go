package clients

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	testFrom  = common.HexToAddress("0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1")
	testTo    = common.HexToAddress("0x384Aa214be0B279cbf211e9b2C992d8633F77848")
)

func validTransferLog(value *big.Int) ethtypes.Log {
	return ethtypes.Log{
		Address: testToken,
		Topics: []common.Hash{
			transferTopic,
			common.BytesToHash(testFrom.Bytes()),
			common.BytesToHash(testTo.Bytes()),
		},
		Data: common.LeftPadBytes(value.Bytes(), 32),
	}
}

func TestTryDecodeTransfer(t *testing.T) {
	value := big.NewInt(5000000)

	event, ok := TryDecodeTransfer(validTransferLog(value))
	require.True(t, ok)
	assert.Equal(t, testFrom.Hex(), event.From)
	assert.Equal(t, testTo.Hex(), event.To)
	assert.Zero(t, event.Value.Cmp(value))
}

func TestTryDecodeTransfer_LargeValue(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	event, ok := TryDecodeTransfer(validTransferLog(max))
	require.True(t, ok)
	assert.Zero(t, event.Value.Cmp(max))
}

func TestTryDecodeTransfer_Rejects(t *testing.T) {
	tests := []struct {
		name string
		log  ethtypes.Log
	}{
		{
			"wrong event signature",
			ethtypes.Log{
				Address: testToken,
				Topics: []common.Hash{
					// Approval(address,address,uint256)
					common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"),
					common.BytesToHash(testFrom.Bytes()),
					common.BytesToHash(testTo.Bytes()),
				},
				Data: common.LeftPadBytes(big.NewInt(1).Bytes(), 32),
			},
		},
		{
			"missing indexed topic",
			ethtypes.Log{
				Address: testToken,
				Topics: []common.Hash{
					transferTopic,
					common.BytesToHash(testFrom.Bytes()),
				},
				Data: common.LeftPadBytes(big.NewInt(1).Bytes(), 32),
			},
		},
		{
			"truncated data word",
			ethtypes.Log{
				Address: testToken,
				Topics: []common.Hash{
					transferTopic,
					common.BytesToHash(testFrom.Bytes()),
					common.BytesToHash(testTo.Bytes()),
				},
				Data: []byte{0x01, 0x02},
			},
		},
		{
			"no topics at all",
			ethtypes.Log{Address: testToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := TryDecodeTransfer(tt.log)
			assert.False(t, ok)
		})
	}
}
