package main

import "github.com/floppylabs/floppy/cmd"

func main() {
	cmd.Execute()
}
