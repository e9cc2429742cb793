package main

import (
	"github.com/paulexconde/together/internal/cli"
	"github.com/paulexconde/together/internal/log"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
