package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	from      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	to        = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func TestTopicTableMatchesABI(t *testing.T) {
	for name, ev := range contract.ABI.Events {
		assert.Equal(t, name, contract.EventName(ev.ID), "topic for %s", name)
	}
	assert.Equal(t, "", contract.EventName(common.Hash{}))
}

func TestTransferTopicIsERC20(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		contract.ABI.Events["Transfer"].ID.Hex())
}

func TestEncodeTransferLog(t *testing.T) {
	log, err := contract.EncodeLog(tokenAddr, token.Event{
		Name: token.EventTransfer,
		Args: map[string]any{"from": from, "to": to, "value": uint256.NewInt(1_000)},
	})
	require.NoError(t, err)

	assert.Equal(t, tokenAddr, log.Address)
	require.Len(t, log.Topics, 3)
	assert.Equal(t, common.BytesToHash(from.Bytes()), log.Topics[1])
	assert.Equal(t, common.BytesToHash(to.Bytes()), log.Topics[2])
	require.Len(t, log.Data, 32)
	assert.Equal(t, byte(0x03), log.Data[30])
	assert.Equal(t, byte(0xe8), log.Data[31])
}

func TestDecodeRecoversEvent(t *testing.T) {
	for _, ev := range []token.Event{
		{Name: token.EventBurn, Args: map[string]any{"burner": from, "value": uint256.NewInt(300)}},
		{Name: token.EventPause, Args: map[string]any{}},
		{Name: token.EventUnpause, Args: map[string]any{}},
		{Name: token.EventOwnershipTransferred, Args: map[string]any{"previousOwner": from, "newOwner": to}},
	} {
		t.Run(ev.Name, func(t *testing.T) {
			log, err := contract.EncodeLog(tokenAddr, ev)
			require.NoError(t, err)
			got, err := contract.DecodeLog(log)
			require.NoError(t, err)
			assert.Equal(t, ev.Name, got.Name)
			assert.Equal(t, len(ev.Args), len(got.Args))
			for k, v := range ev.Args {
				assert.Equal(t, v, got.Args[k], k)
			}
		})
	}
}

func TestEncodeUnknownEvent(t *testing.T) {
	_, err := contract.EncodeLog(tokenAddr, token.Event{Name: "Approval"})
	assert.ErrorIs(t, err, contract.ErrUnknownEvent)
}

func TestEncodeBadArgument(t *testing.T) {
	_, err := contract.EncodeLog(tokenAddr, token.Event{
		Name: token.EventBurn,
		Args: map[string]any{"burner": "not-an-address", "value": uint256.NewInt(1)},
	})
	assert.ErrorIs(t, err, contract.ErrBadArgument)
}

func TestDecodeUnknownTopic(t *testing.T) {
	_, err := contract.DecodeLog(&types.Log{Topics: []common.Hash{{0x01}}})
	assert.ErrorIs(t, err, contract.ErrUnknownEvent)

	_, err = contract.DecodeLog(&types.Log{})
	assert.ErrorIs(t, err, contract.ErrUnknownEvent)
}

func TestTokenAddressIsDeterministic(t *testing.T) {
	deployer := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Equal(t, tokenAddr, contract.TokenAddress(deployer))
}
