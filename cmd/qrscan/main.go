// qrscan corre el flujo de escaneo sobre un directorio de imágenes (un frame
// por archivo, en orden) e imprime la ruta de la ficha del primer QR válido.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"animal-catalog/internal/adapters/camera/imagedir"
	"animal-catalog/internal/adapters/qrcode"
	"animal-catalog/internal/domain/scanner"
	"animal-catalog/internal/platform/logger"
)

func main() {
	dir := flag.String("dir", ".", "directorio con los frames (png, jpeg, gif)")
	timeout := flag.Duration("timeout", 30*time.Second, "tiempo máximo de escaneo")
	base := flag.String("base", "", "si se indica, imprime la URL absoluta (ej. https://zoo.example)")
	flag.Parse()

	log, err := logger.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	f := scanner.NewFlow(scanner.FlowOptions{
		Camera:  imagedir.New(*dir),
		Decoder: qrcode.NewDecoder(),
	})

	path, err := f.Run(ctx)
	if err != nil {
		fields := map[string]any{"dir": *dir, "err": err}
		switch {
		case errors.Is(err, scanner.ErrSourceExhausted):
			log.Warn("no animal code found", fields)
			os.Exit(2)
		case scanner.ClassifyCameraError(err) != scanner.KindUnknown:
			log.Error(scanner.CameraMessage(err), fields)
		default:
			log.Error("scan failed", fields)
		}
		os.Exit(1)
	}

	fmt.Println(strings.TrimRight(*base, "/") + path)
}
