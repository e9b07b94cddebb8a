package main

import (
	"CadenceFM/cmd"
)

func main() {
	cmd.Execute()
}
