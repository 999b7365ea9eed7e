package main

import "github.com/jshufro/abi-gen/cmd"

func main() {
	cmd.Execute()
}
