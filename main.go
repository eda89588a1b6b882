package main

import "github.com/devopsext/vmclient/cmd"

func main() {
	cmd.Execute()
}
