package main

import "github.com/ridoystarlord/rhipster/cmd"

func main() {
	cmd.Execute()
}
