package contract

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Errors.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadArgument  = errors.New("bad event argument")
)

// Event signatures emitted by the token, used for topic lookup.
var knownEventTopics = map[string]string{
	computeEventTopic("Transfer(address,address,uint256)"):     token.EventTransfer,
	computeEventTopic("Burn(address,uint256)"):                 token.EventBurn,
	computeEventTopic("Pause()"):                               token.EventPause,
	computeEventTopic("Unpause()"):                             token.EventUnpause,
	computeEventTopic("OwnershipTransferred(address,address)"): token.EventOwnershipTransferred,
}

func computeEventTopic(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// EventName returns the event name for a topic0 hash, or "" when unknown.
func EventName(topic common.Hash) string {
	return knownEventTopics[topic.Hex()]
}

// TokenAddress is the address the token contract gets when owner deploys it
// as its first transaction.
func TokenAddress(owner common.Address) common.Address {
	return crypto.CreateAddress(owner, 0)
}

// EncodeLog turns a ledger event into an EVM log emitted by tokenAddr.
// Block and transaction fields are left for the caller to fill.
func EncodeLog(tokenAddr common.Address, ev token.Event) (*types.Log, error) {
	abiEv, ok := ABI.Events[ev.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}

	topics := []common.Hash{abiEv.ID}
	var data []any
	for _, in := range abiEv.Inputs {
		v, err := toABIValue(in, ev.Args[in.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", ev.Name, in.Name, err)
		}
		if in.Indexed {
			topics = append(topics, common.BytesToHash(v.(common.Address).Bytes()))
			continue
		}
		data = append(data, v)
	}

	packed, err := abiEv.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", ev.Name, err)
	}
	return &types.Log{Address: tokenAddr, Topics: topics, Data: packed}, nil
}

// DecodeLog is the inverse of EncodeLog.
func DecodeLog(log *types.Log) (token.Event, error) {
	if len(log.Topics) == 0 {
		return token.Event{}, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}
	abiEv, err := ABI.EventByID(log.Topics[0])
	if err != nil {
		return token.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	raw := make(map[string]any)
	var indexed abi.Arguments
	for _, in := range abiEv.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(raw, indexed, log.Topics[1:]); err != nil {
		return token.Event{}, fmt.Errorf("decoding %s topics: %w", abiEv.Name, err)
	}
	if len(log.Data) > 0 {
		if err := abiEv.Inputs.NonIndexed().UnpackIntoMap(raw, log.Data); err != nil {
			return token.Event{}, fmt.Errorf("decoding %s data: %w", abiEv.Name, err)
		}
	}

	args := make(map[string]any, len(raw))
	for k, v := range raw {
		if b, ok := v.(*big.Int); ok {
			u, overflow := uint256.FromBig(b)
			if overflow {
				return token.Event{}, fmt.Errorf("%w: %s overflows uint256", ErrBadArgument, k)
			}
			args[k] = u
			continue
		}
		args[k] = v
	}
	return token.Event{Name: abiEv.Name, Args: args}, nil
}

func toABIValue(arg abi.Argument, v any) (any, error) {
	switch arg.Type.T {
	case abi.AddressTy:
		a, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%w: want address, got %T", ErrBadArgument, v)
		}
		return a, nil
	case abi.UintTy:
		u, ok := v.(*uint256.Int)
		if !ok || u == nil {
			return nil, fmt.Errorf("%w: want *uint256.Int, got %T", ErrBadArgument, v)
		}
		return u.ToBig(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrBadArgument, arg.Type)
	}
}
