package main

import "github.com/example/usercli/cmd"

func main() {
	cmd.Execute()
}
