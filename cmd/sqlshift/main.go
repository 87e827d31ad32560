package main

import "github.com/voicescript/sqlshift/internal/cli"

func main() {
	cli.Execute()
}
