// Package contract maps ledger events onto the token contract's EVM event
// ABI, so they can be stored and displayed as ordinary logs.
package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// QBXToken is the QBX token interface (ERC-20 + Burnable + Pausable + Ownable).
//
// Function selectors:
//
//	name()               → 0x06fdde03
//	symbol()             → 0x95d89b41
//	decimals()           → 0x313ce567
//	totalSupply()        → 0x18160ddd
//	balanceOf(address)   → 0x70a08231
//	transfer(a,u256)     → 0xa9059cbb
//	burn(u256)           → 0x42966c68
//	owner()              → 0x8da5cb5b
//	transferOwnership(a) → 0xf2fde38b
//	pause()              → 0x8456cb59
//	unpause()            → 0x3f4ba83a
//	paused()             → 0x5c975abb
const qbxTokenABI = `[
  {"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
  {"type":"function","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
  {"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"},
  {"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"balanceOf","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
  {"type":"function","name":"burn","inputs":[{"name":"value","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
  {"type":"function","name":"transferOwnership","inputs":[{"name":"newOwner","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"pause","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"unpause","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"paused","inputs":[],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},

  {"type":"event","name":"Transfer","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"value","type":"uint256","indexed":false}]},
  {"type":"event","name":"Burn","anonymous":false,"inputs":[
    {"name":"burner","type":"address","indexed":true},
    {"name":"value","type":"uint256","indexed":false}]},
  {"type":"event","name":"Pause","anonymous":false,"inputs":[]},
  {"type":"event","name":"Unpause","anonymous":false,"inputs":[]},
  {"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[
    {"name":"previousOwner","type":"address","indexed":true},
    {"name":"newOwner","type":"address","indexed":true}]}
]`

// ABI is the parsed QBX token ABI.
var ABI = mustParseABI(qbxTokenABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("contract: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
