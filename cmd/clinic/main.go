package main

import "github.com/nookcoder/clinic-console/internal/cli/cmd"

func main() {
	cmd.Execute()
}
