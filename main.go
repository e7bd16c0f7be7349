// Command finlens is a terminal personal-finance coach.
package main

import "github.com/theirongolddev/finlens/cmd"

func main() {
	cmd.Execute()
}
