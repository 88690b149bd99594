package main

import "github.com/hearthmind/hearthmind/cmd"

func main() {
	cmd.Execute()
}
