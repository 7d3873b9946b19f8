package main

import (
	"github.com/tableserve/ordersync/internal/app"
	"github.com/tableserve/ordersync/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
