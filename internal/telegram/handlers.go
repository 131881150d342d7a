package telegram

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivrude/tg-gambl/internal/service"
	"github.com/ivrude/tg-gambl/internal/session"
	"github.com/ivrude/tg-gambl/internal/storage"
)

// MessageSender определяет интерфейс для отправки сообщений.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	Bot     MessageSender
	Service service.CasinoServiceInterface
	Admins  map[int64]struct{}
}

func NewHandler(bot MessageSender, service service.CasinoServiceInterface, adminIDs []int64) *Handler {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Handler{
		Bot:     bot,
		Service: service,
		Admins:  admins,
	}
}

func (h *Handler) isAdmin(tgID int64) bool {
	_, ok := h.Admins[tgID]
	return ok
}

// Route - выбираем ровно один обработчик для входящего сообщения.
// Пока идет ставка, любой текст уходит в игровой сценарий, даже если
// он выглядит как команда: "/balance" посреди ставки - это кривой
// вариант или кривая сумма, а не запрос баланса.
func (h *Handler) Route(msg *tgbotapi.Message) {
	if len(msg.Photo) > 0 {
		h.HandleReceiptPhoto(msg)
		return
	}

	userID := msg.From.ID
	switch h.Service.SessionState(userID) {
	case session.AwaitingGuess:
		h.HandleGuess(msg)
		return
	case session.AwaitingBet:
		h.HandleStake(msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	cmd := text
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmd = text[:i]
	}
	// В группах команды приходят как "/balance@BotName".
	if strings.HasPrefix(cmd, "/") {
		if i := strings.IndexByte(cmd, '@'); i > 0 {
			cmd = cmd[:i]
		}
	}

	switch cmd {
	case "/start":
		h.HandleStart(msg)
	case "/help":
		h.HandleHelp(msg.Chat.ID)
	case "/play", btnPlay:
		h.HandleGamesMenu(msg.Chat.ID)
	case "/less_more":
		h.HandleStartWager(msg.Chat.ID, userID)
	case "/balance", btnBalance:
		h.HandleBalance(msg.Chat.ID, userID)
	case "/deposit", btnDeposit:
		h.HandleDeposit(msg.Chat.ID)
	case "/approve":
		h.HandleApprove(msg)
	case "/set_card":
		h.HandleSetCard(msg)
	case "/find_user":
		h.HandleFindUser(msg)
	case "/change_user":
		h.HandleChangeUser(msg)
	}
}

// HandleStart - /start: регистрируем пользователя и показываем меню.
func (h *Handler) HandleStart(msg *tgbotapi.Message) {
	balance, err := h.Service.Register(msg.From.ID)
	if err != nil {
		log.Printf("[Start] failed for %d: %v", msg.From.ID, err)
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Не удалось зарегистрироваться 😅"))
		return
	}
	reply := htmlMessage(msg.Chat.ID,
		fmt.Sprintf("Добро пожаловать в игру! Ваш баланс: <b>%.2f</b>\nНажмите «%s» или отправьте /play.", balance, btnPlay))
	reply.ReplyMarkup = mainKeyboard
	sendMessage(h.Bot, reply)
}

// HandleHelp - /help
func (h *Handler) HandleHelp(chatID int64) {
	text := "Вот что я умею:\n\n" +
		"/play - выбрать игру\n" +
		"/less_more - игра «меньше или больше»\n" +
		"/balance - показать баланс\n" +
		"/deposit - пополнить баланс\n" +
		"/help - показать это сообщение"
	sendMessage(h.Bot, tgbotapi.NewMessage(chatID, text))
}

// HandleGamesMenu - меню игр.
func (h *Handler) HandleGamesMenu(chatID int64) {
	reply := tgbotapi.NewMessage(chatID, "Выберите игру:")
	reply.ReplyMarkup = gamesKeyboard
	sendMessage(h.Bot, reply)
}

// HandleStartWager - начинаем ставку: первое число и выбор варианта.
func (h *Handler) HandleStartWager(chatID, userID int64) {
	first, err := h.Service.StartWager(userID)
	if err != nil {
		log.Printf("[Wager] failed to start for %d: %v", userID, err)
		sendMessage(h.Bot, tgbotapi.NewMessage(chatID, "Не удалось начать игру 😅"))
		return
	}
	reply := htmlMessage(chatID,
		fmt.Sprintf("🎲 Первое число: <b>%d</b>\nКаким будет второе число: меньше, больше или равно?", first))
	reply.ReplyMarkup = guessKeyboard
	sendMessage(h.Bot, reply)
}

// HandleGuess - пользователь выбирает вариант.
func (h *Handler) HandleGuess(msg *tgbotapi.Message) {
	err := h.Service.SubmitGuess(msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, service.ErrBadRelation) {
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Введите только: меньше, больше или равно"))
			return
		}
		log.Printf("[Wager] guess failed for %d: %v", msg.From.ID, err)
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "💰 Введите сумму ставки:")
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	sendMessage(h.Bot, reply)
}

// HandleStake - пользователь вводит сумму, доигрываем ставку.
func (h *Handler) HandleStake(msg *tgbotapi.Message) {
	result, err := h.Service.PlaceStake(msg.From.ID, msg.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadStake):
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Введите корректную сумму."))
		case errors.Is(err, service.ErrInsufficientFunds):
			reply := tgbotapi.NewMessage(msg.Chat.ID, "❌ Недостаточно средств на балансе.")
			reply.ReplyMarkup = mainKeyboard
			sendMessage(h.Bot, reply)
		case errors.Is(err, storage.ErrUserNotFound):
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Вы не зарегистрированы. Отправьте /start."))
		default:
			log.Printf("[Wager] settle failed for %d: %v", msg.From.ID, err)
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Что-то пошло не так, попробуйте позже 😅"))
		}
		return
	}

	var outcome string
	if result.Won {
		outcome = fmt.Sprintf("🎉 Вы выиграли %.2f!", result.Payout)
	} else {
		outcome = fmt.Sprintf("😢 Вы проиграли %.2f.", result.Stake)
	}
	reply := htmlMessage(msg.Chat.ID, fmt.Sprintf(
		"🎲 Первое число: <b>%d</b>\n"+
			"🎯 Второе число: <b>%d</b>\n"+
			"Ваша ставка: <b>%s</b>\n\n"+
			"%s\nБаланс: <b>%.2f</b>",
		result.First, result.Second, result.Guess, outcome, result.Balance))
	reply.ReplyMarkup = mainKeyboard
	sendMessage(h.Bot, reply)
}

// HandleBalance - /balance
func (h *Handler) HandleBalance(chatID, userID int64) {
	balance, err := h.Service.Balance(userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendMessage(h.Bot, tgbotapi.NewMessage(chatID, "❌ Вы не зарегистрированы. Отправьте /start."))
			return
		}
		log.Printf("[Balance] failed for %d: %v", userID, err)
		sendMessage(h.Bot, tgbotapi.NewMessage(chatID, "Не удалось получить баланс 😅"))
		return
	}
	sendMessage(h.Bot, htmlMessage(chatID, fmt.Sprintf("Ваш баланс: <b>%.2f</b>", balance)))
}

// HandleDeposit - реквизиты для пополнения.
func (h *Handler) HandleDeposit(chatID int64) {
	card, err := h.Service.CardNumber()
	if err != nil {
		if errors.Is(err, storage.ErrNoCard) {
			sendMessage(h.Bot, tgbotapi.NewMessage(chatID, "❌ Пополнение пока не настроено, попробуйте позже."))
			return
		}
		log.Printf("[Deposit] failed: %v", err)
		sendMessage(h.Bot, tgbotapi.NewMessage(chatID, "Не удалось получить реквизиты 😅"))
		return
	}
	sendMessage(h.Bot, htmlMessage(chatID, fmt.Sprintf(
		"💳 Для пополнения баланса:\n"+
			"1. Переведите деньги на карту: <b>%s</b>\n"+
			"2. Отправьте фото квитанции в этот чат.", card)))
}

// HandleReceiptPhoto - пересылаем квитанцию всем админам с подписью,
// по которой /approve потом найдет пользователя.
func (h *Handler) HandleReceiptPhoto(msg *tgbotapi.Message) {
	if len(h.Admins) == 0 {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Пополнение пока не настроено, попробуйте позже."))
		return
	}

	photo := msg.Photo[len(msg.Photo)-1]
	caption := fmt.Sprintf("🧾 Новая квитанция!\nTelegram ID: <code>%d</code>", msg.From.ID)

	for adminID := range h.Admins {
		fwd := tgbotapi.NewPhoto(adminID, tgbotapi.FileID(photo.FileID))
		fwd.Caption = caption
		fwd.ParseMode = tgbotapi.ModeHTML
		sendMessage(h.Bot, fwd)
	}

	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "✅ Квитанция отправлена админу на проверку."))
}

// HandleApprove - админ отвечает на пересланную квитанцию командой
// /approve <сумма>. ID пользователя берем из подписи квитанции.
func (h *Handler) HandleApprove(msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.Caption == "" {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "⚠️ Ответьте на сообщение с квитанцией."))
		return
	}

	caption := msg.ReplyToMessage.Caption
	parts := strings.Fields(msg.Text)
	var amountText string
	if len(parts) > 1 {
		amountText = parts[1]
	}

	result, err := h.Service.Approve(caption, amountText)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadCaption):
			// Диагностика только для админа: показываем подпись, в
			// которой не нашелся ID.
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID,
				fmt.Sprintf("❌ Не удалось найти Telegram ID в подписи.\nПолученный caption:\n\n%s", caption)))
		case errors.Is(err, service.ErrBadAmount):
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /approve <сумма>"))
		case errors.Is(err, storage.ErrUserNotFound):
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Пользователь не найден."))
		default:
			log.Printf("[Approve] failed: %v", err)
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Не удалось пополнить баланс."))
		}
		return
	}

	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("✅ Баланс пользователя %d пополнен на %.2f.", result.TelegramID, result.Amount)))
}

// HandleSetCard - /set_card <номер>: задаем карту для пополнений.
func (h *Handler) HandleSetCard(msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	parts := strings.Fields(msg.Text)
	if len(parts) != 2 {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /set_card <номер карты>"))
		return
	}

	if err := h.Service.SetCard(parts[1]); err != nil {
		log.Printf("[SetCard] failed: %v", err)
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Не удалось сохранить карту."))
		return
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "✅ Карта для пополнений обновлена."))
}

// HandleFindUser - /find_user <id>: баланс пользователя для админа.
func (h *Handler) HandleFindUser(msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	parts := strings.Fields(msg.Text)
	if len(parts) != 2 {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /find_user <telegram id>"))
		return
	}
	tgID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /find_user <telegram id>"))
		return
	}

	user, err := h.Service.FindUser(tgID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Пользователь не найден."))
			return
		}
		log.Printf("[FindUser] failed: %v", err)
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Не удалось найти пользователя."))
		return
	}
	sendMessage(h.Bot, htmlMessage(msg.Chat.ID,
		fmt.Sprintf("👤 Пользователь %d\nБаланс: <b>%.2f</b>", user.TelegramID, user.Balance)))
}

// HandleChangeUser - /change_user <id> <дельта>: правка баланса.
// Дельта может быть отрицательной и увести баланс в минус.
func (h *Handler) HandleChangeUser(msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	parts := strings.Fields(msg.Text)
	if len(parts) != 3 {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /change_user <telegram id> <дельта>"))
		return
	}
	tgID, errID := strconv.ParseInt(parts[1], 10, 64)
	delta, errDelta := strconv.ParseFloat(parts[2], 64)
	if errID != nil || errDelta != nil {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Формат: /change_user <telegram id> <дельта>"))
		return
	}

	balance, err := h.Service.AdjustBalance(tgID, delta)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Пользователь не найден."))
			return
		}
		log.Printf("[ChangeUser] failed: %v", err)
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "❌ Не удалось изменить баланс."))
		return
	}
	sendMessage(h.Bot, htmlMessage(msg.Chat.ID,
		fmt.Sprintf("✅ Баланс пользователя %d: <b>%.2f</b>", tgID, balance)))
}

func (h *Handler) requireAdmin(msg *tgbotapi.Message) bool {
	if h.isAdmin(msg.From.ID) {
		return true
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "⛔ Команда доступна только администратору."))
	return false
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
