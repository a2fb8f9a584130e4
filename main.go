package main

import (
	"log"

	"github.com/rohanhumai/qr-attendance-client/authority"
	"github.com/rohanhumai/qr-attendance-client/config"
)

func main() {
	cfg, err := config.LoadAuthority()
	if err != nil {
		log.Fatal(err)
	}

	auth := authority.New(cfg)
	router := auth.Router()

	log.Println("Attendance authority listening on", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
