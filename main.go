package main

import "github.com/devicelab-dev/inji-pages/pkg/cli"

func main() {
	cli.Execute()
}
