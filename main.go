package main

import "github.com/darmiel/callsign/cmd"

func main() {
	cmd.Execute()
}
