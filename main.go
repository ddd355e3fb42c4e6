package main

import (
	"github.com/ARU-life-sciences/rep/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
