package main

import (
	"go.uber.org/fx"

	"github.com/broce-labs/partsline/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
