// Command whistle-install downloads the latest whistle release from GitHub
// and installs the binary.
package main

import "github.com/whistle-ai/whistle/cmd/whistle-install/cmd"

func main() {
	cmd.Execute()
}
