package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoContainsPrefixAndMessage(t *testing.T) {
	result := Info("test message")
	assert.Contains(t, result, "ℹ")
	assert.Contains(t, result, "test message")
}

func TestHintContainsPrefixAndMessage(t *testing.T) {
	result := Hint("qbx genesis")
	assert.Contains(t, result, "→")
	assert.Contains(t, result, "qbx genesis")
}

func TestSuccessWarnErrPrefixes(t *testing.T) {
	assert.Contains(t, Success("done"), "✓")
	assert.Contains(t, Warn("careful"), "⚠")
	assert.Contains(t, Err("failed"), "✗")
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestAllFormattersReturnNonEmpty(t *testing.T) {
	formatters := map[string]func(string) string{
		"Success": Success,
		"Warn":    Warn,
		"Err":     Err,
		"Info":    Info,
		"Hint":    Hint,
		"Addr":    Addr,
		"Val":     Val,
		"Meta":    Meta,
		"Symbol":  Symbol,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			result := fn("test")
			assert.NotEmpty(t, result, "%s should return non-empty string", name)
			assert.Contains(t, result, "test", "%s should contain the input message", name)
		})
	}
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "", TruncateAddr(""))

	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x1234…5678", TruncateAddr(addr))
}

func TestBannerMentionsToken(t *testing.T) {
	assert.Contains(t, Banner(), "qiibeeCoin")
}

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

func TestConfirmAnswers(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		"  yes  ": true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"maybe\n": false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		assert.Equal(t, want, Confirm(strings.NewReader(input), &out, "burn?"), "input %q", input)
		assert.Contains(t, out.String(), "burn?")
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestConfirmDangerPrompt(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, ConfirmDanger(strings.NewReader("y\n"), &out, "irreversible"))
	assert.Contains(t, out.String(), "⚠")
}

// ---------------------------------------------------------------------------
// padR / trimErr
// ---------------------------------------------------------------------------

func TestPadR(t *testing.T) {
	assert.Equal(t, 10, len(padR("hi", 10)))
	assert.Equal(t, "hello", padR("hello", 5))
	assert.Equal(t, "toolongstring", padR("toolongstring", 5))
	assert.Equal(t, "    ", padR("", 4))
}

func TestPadRIgnoresANSI(t *testing.T) {
	styled := StyleSuccess.Render("ok")
	padded := padR(styled, 6)
	assert.True(t, strings.HasPrefix(padded, styled))
	assert.True(t, strings.HasSuffix(padded, "    "))
}

func TestTrimErr(t *testing.T) {
	assert.Equal(t, "short error", trimErr("short error"))
	long := strings.Repeat("x", 80)
	result := trimErr(long)
	assert.Contains(t, result, "…")
	assert.True(t, strings.HasPrefix(result, strings.Repeat("x", 60)))
}
