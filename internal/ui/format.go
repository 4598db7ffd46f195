package ui

import (
	"fmt"

	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Namer maps an address to an account name, or "" when unknown.
type Namer func(common.Address) string

// Who renders an address as its account name when known.
func Who(a common.Address, name Namer) string {
	if name != nil {
		if n := name(a); n != "" {
			return n
		}
	}
	return TruncateAddr(a.Hex())
}

// Amount renders base units as "<decimal> <symbol>".
func Amount(v *uint256.Int, meta token.Metadata) string {
	return token.FormatAmount(v, meta.Decimals) + " " + meta.Symbol
}

// DescribeEvent summarises an event's arguments on one line.
func DescribeEvent(ev token.Event, meta token.Metadata, name Namer) string {
	value, _ := ev.Args["value"].(*uint256.Int)
	switch ev.Name {
	case token.EventTransfer:
		return fmt.Sprintf("%s → %s  %s",
			Who(ev.Address("from"), name), Who(ev.Address("to"), name), Amount(value, meta))
	case token.EventBurn:
		return fmt.Sprintf("%s burned %s", Who(ev.Address("burner"), name), Amount(value, meta))
	case token.EventPause:
		return "ledger paused"
	case token.EventUnpause:
		return "ledger unpaused"
	case token.EventOwnershipTransferred:
		return fmt.Sprintf("owner %s → %s",
			Who(ev.Address("previousOwner"), name), Who(ev.Address("newOwner"), name))
	}
	return ev.Name
}

// EventStyle picks the color of an event name.
func EventStyle(event string) lipgloss.Style {
	switch event {
	case token.EventBurn:
		return StyleError
	case token.EventPause:
		return StyleWarning
	case token.EventUnpause:
		return StyleSuccess
	case token.EventOwnershipTransferred:
		return StyleToken
	}
	return StyleInfo
}

// Status renders a receipt outcome.
func Status(succeeded bool, kind string) string {
	if succeeded {
		return StyleSuccess.Render("success")
	}
	return StyleError.Render("failed: " + kind)
}

// trimErr shortens an error for the one-line status bar.
func trimErr(s string) string {
	if len(s) > 60 {
		return s[:60] + "…"
	}
	return s
}
