package main

import (
	"go.uber.org/fx"

	"github.com/bigp7952/siggil-sub002/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
