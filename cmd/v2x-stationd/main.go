package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/openv2x/openv2x/cmd/v2x-stationd/app"
)

func main() {
	app.NewApp().Run()
}
