package main

import (
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
