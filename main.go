package main

import "github.com/aceteam-ai/gatewatch/cmd"

func main() {
	cmd.Execute()
}
