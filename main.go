package main

import "github.com/opslift/upgctl/cmd"

func main() {
	cmd.Execute()
}
