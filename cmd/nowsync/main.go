package main

import "github.com/tessro/nowsync/internal/cli"

func main() {
	cli.Execute()
}
