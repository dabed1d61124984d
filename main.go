package main

import "github.com/samsaffron/ghostwrite/cmd"

func main() {
	cmd.Execute()
}
