package main

import "yqhp/automation-engine/cmd"

func main() {
	cmd.Execute()
}
