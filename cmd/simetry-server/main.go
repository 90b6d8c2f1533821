package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/simetry/cmd/simetry-server/app"
)

func main() {
	app.NewApp().Run()
}
