// Command whistle-package stages whistle release assets for publication.
package main

import "github.com/whistle-ai/whistle/cmd/whistle-package/cmd"

func main() {
	cmd.Execute()
}
