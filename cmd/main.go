package main

import "maker/internal/cli"

func main() {
	cli.Execute()
}
