package main

import "docintel/cmd"

func main() {
	cmd.Execute()
}
