package main

import "github.com/funvibe/tapec/pkg/cli"

func main() {
	cli.Run()
}
