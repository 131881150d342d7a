package telegram

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/ivrude/tg-gambl/internal/game"
	"github.com/ivrude/tg-gambl/internal/service"
	"github.com/ivrude/tg-gambl/internal/storage"
)

type Bot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
}

func NewBot() (*Bot, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using system variables")
	}

	botToken := os.Getenv("TELEGRAM_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_TOKEN is not set")
	}

	botAPI, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is not set")
	}

	store, err := storage.New(dsn)
	if err != nil {
		return nil, err
	}

	err = store.Ping()
	if err != nil {
		log.Fatalf("cannot ping DB: %v", err)
	} else {
		log.Println("✅ Connected to Postgres")
	}

	if err := store.CreateSchema(context.Background()); err != nil {
		log.Fatalf("cannot create schema: %v", err)
	}

	adminIDs := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if len(adminIDs) == 0 {
		log.Println("Warning: ADMIN_IDS is empty, admin commands are disabled")
	}

	svc := service.New(store, game.NewSource())
	handler := NewHandler(botAPI, svc, adminIDs)

	return &Bot{
		bot:     botAPI,
		handler: handler,
	}, nil
}

// parseAdminIDs - разбираем ADMIN_IDS вида "123,456".
func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: skipping bad admin id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	log.Println("Bot started!")

	for update := range updates {
		if update.Message != nil { // If we got a message
			b.handler.Route(update.Message)
		} else if update.CallbackQuery != nil {
			callback := update.CallbackQuery

			switch callback.Data {
			case cbGameLessMore:
				b.handler.HandleStartWager(callback.Message.Chat.ID, callback.From.ID)
			case cbGameSoon:
				sendMessage(b.handler.Bot, tgbotapi.NewMessage(callback.Message.Chat.ID, "🎰 Эта игра скоро появится!"))
			}
			// Answer callback query so the loading icon on the button disappears
			callbackResp := tgbotapi.NewCallback(callback.ID, "")
			b.bot.Request(callbackResp)
		}
	}
}
