package main

import "apms/internal/cli"

func main() {
	cli.Execute()
}
