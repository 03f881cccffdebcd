package main

import "github.com/pfrederiksen/buchloe-events/internal/cli"

func main() {
	cli.Execute()
}
