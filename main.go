package main

import "github.com/Mohsinsiddi/qbx/cmd"

func main() {
	cmd.Execute()
}
