package main

import (
	"github.com/KentaroHashi12/Futarigohan/internal/app"
	"github.com/KentaroHashi12/Futarigohan/internal/config"
)

func main() {
	app.Go(config.Load())
}
