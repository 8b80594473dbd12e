package clients

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/JASSBR/invoice-usdc-base/types"
)

const erc20TransferABI = `
[
  {
    "anonymous": false,
    "name": "Transfer",
    "type": "event",
    "inputs": [
      { "indexed": true, "name": "from", "type": "address" },
      { "indexed": true, "name": "to", "type": "address" },
      { "indexed": false, "name": "value", "type": "uint256" }
    ]
  }
]
`

var (
	erc20ABI      abi.ABI
	transferTopic common.Hash
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
	erc20ABI = parsed
	transferTopic = parsed.Events["Transfer"].ID
}

// TryDecodeTransfer decodes a log entry as an ERC-20 Transfer event.
// Returns false for anything that does not match the event shape; callers
// scan receipts with it and skip entries that fail to decode.
func TryDecodeTransfer(log ethtypes.Log) (*types.TransferEvent, bool) {
	if len(log.Topics) != 3 || log.Topics[0] != transferTopic {
		return nil, false
	}

	vals, err := erc20ABI.Unpack("Transfer", log.Data)
	if err != nil || len(vals) != 1 {
		return nil, false
	}

	value, ok := vals[0].(*big.Int)
	if !ok {
		return nil, false
	}

	return &types.TransferEvent{
		From:  common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
		To:    common.BytesToAddress(log.Topics[2].Bytes()).Hex(),
		Value: value,
	}, true
}
