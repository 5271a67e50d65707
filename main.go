package main

import (
	"EternalJukebox/cmd"
)

func main() {
	// Cobra exits the process itself on command errors.
	cmd.Execute()
}
