package main

import "github.com/racelogix/f1replay-engine-go/cmd"

func main() {
	cmd.Execute()
}
