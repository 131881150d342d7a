package main

import (
	"log"

	"github.com/ivrude/tg-gambl/internal/telegram"
)

func main() {
	bot, err := telegram.NewBot()
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	bot.Start()
}
