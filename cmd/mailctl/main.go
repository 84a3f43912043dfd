package main

import "mailctl/internal/cli"

func main() {
	cli.Execute()
}
