package main

import "github.com/mj1618/locator-cli/cmd"

func main() {
	cmd.Execute()
}
