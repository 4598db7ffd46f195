package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm writes a yes/no prompt to out and reads the answer from in.
// Anything but "y" or "yes" is a no.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	return ask(in, out, StyleWarning.Render(prompt))
}

// ConfirmDanger is like Confirm but styled with the error color (for
// irreversible actions such as burns).
func ConfirmDanger(in io.Reader, out io.Writer, prompt string) bool {
	return ask(in, out, StyleError.Render("⚠ "+prompt))
}

func ask(in io.Reader, out io.Writer, styled string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", styled)
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
