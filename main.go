package main

import (
	"os"

	_ "time/tzdata"

	"github.com/Tiliavir/ponto/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
