package main

import "github.com/smartapp/smartapp/internal/cli"

func main() {
	cli.Execute()
}
