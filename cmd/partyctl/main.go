package main

import "github.com/mcoot/partyhub/internal/cli"

func main() {
	cli.Execute()
}
