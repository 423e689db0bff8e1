package main

import "github.com/nagazul/ttclock/cmd/ttclock/cmd"

func main() {
	cmd.Execute()
}
