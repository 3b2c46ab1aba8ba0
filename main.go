package main

import "backpub/cmd"

func main() {
	cmd.Execute()
}
