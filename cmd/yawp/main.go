package main

import "github.com/jdwb/yawp/cmd/yawp/cmd"

func main() {
	cmd.Execute()
}
