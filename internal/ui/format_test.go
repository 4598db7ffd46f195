package ui

import (
	"testing"

	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

var (
	acct1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	acct5 = common.HexToAddress("0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc")
)

func names(a common.Address) string {
	switch a {
	case acct1:
		return "account1"
	case acct5:
		return "account5"
	}
	return ""
}

func TestWhoFallsBackToAddress(t *testing.T) {
	assert.Equal(t, "account1", Who(acct1, names))
	assert.Equal(t, "0x3C44…93BC", Who(common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), names))
	assert.Equal(t, "0x7099…79C8", Who(acct1, nil))
}

func TestDescribeEvent(t *testing.T) {
	third, _ := token.ParseAmount("0.3", token.Decimals)
	one, _ := token.ParseAmount("1", token.Decimals)

	cases := []struct {
		ev   token.Event
		want string
	}{
		{
			token.Event{Name: token.EventTransfer, Args: map[string]any{"from": acct1, "to": acct5, "value": one}},
			"account1 → account5  1 QBX",
		},
		{
			token.Event{Name: token.EventBurn, Args: map[string]any{"burner": acct5, "value": third}},
			"account5 burned 0.3 QBX",
		},
		{token.Event{Name: token.EventPause, Args: map[string]any{}}, "ledger paused"},
		{token.Event{Name: token.EventUnpause, Args: map[string]any{}}, "ledger unpaused"},
		{
			token.Event{Name: token.EventOwnershipTransferred, Args: map[string]any{"previousOwner": acct1, "newOwner": acct5}},
			"owner account1 → account5",
		},
		{token.Event{Name: "Approval"}, "Approval"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DescribeEvent(tc.ev, token.QBX, names))
	}
}

func TestAmountAndStatus(t *testing.T) {
	assert.Equal(t, "0 QBX", Amount(nil, token.QBX))
	assert.Equal(t, "5 QBX", Amount(uint256.NewInt(5), token.Metadata{Symbol: "QBX"}))

	assert.Contains(t, Status(true, ""), "success")
	assert.Contains(t, Status(false, "contract_paused"), "contract_paused")
}
