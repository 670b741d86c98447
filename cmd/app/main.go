package main

import (
	"go.uber.org/fx"

	"github.com/ahmadraza76/Rolavibe/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
