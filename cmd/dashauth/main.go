package main

import "github.com/MrEthical07/dashauth/cmd/dashauth/cmd"

func main() {
	cmd.Execute()
}
