// Command whistle is a lightweight, intelligent log monitoring tool.
package main

import "github.com/whistle-ai/whistle/cmd/whistle/cmd"

func main() {
	cmd.Execute()
}
