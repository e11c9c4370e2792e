package main

import "github.com/franbrizuelab/NPHW2/internal/cli"

func main() {
	cli.Execute()
}
