package main

import (
	"flag"
	"log"
	"os"

	"animal-catalog/internal/app"
	"animal-catalog/internal/config"
)

// @title Animal Catalog API
// @version 1.0
// @description Espejo JSON de sólo lectura del catálogo de animales.
// @BasePath /api
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "archivo YAML de configuración (opcional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app.New(cfg).Run()
}
