package main

import (
	"log"

	"github.com/jczaplew/gl-js-offline/internal/app"
	"github.com/jczaplew/gl-js-offline/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
