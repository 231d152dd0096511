package main

import "RaceBrain/internal/cli"

func main() {
	cli.Execute()
}
