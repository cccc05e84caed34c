package main

import "github.com/lotto-network/lotto/internal/cli"

func main() {
	cli.Execute()
}
