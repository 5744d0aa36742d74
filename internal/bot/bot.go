// Package bot runs the Telegram intake channel. Users verify themselves by
// sharing their contact once; after that any "Label: value" template message
// goes through the same reconciliation pipeline as the web form.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/pkg/phone"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service/reconcile"
)

const requestTemplate = `Patient Name:
Age:
Blood Group:
Units Required:
Hospital:
Location:
Suffering From:
Contact Person:
Contact Number: `

type Bot struct {
	api              *tgbotapi.BotAPI
	reconcileService reconcile.Service
	telegramUsers    repository.TelegramUserRepository
}

func New(token string, reconcileService reconcile.Service, telegramUsers repository.TelegramUserRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:              api,
		reconcileService: reconcileService,
		telegramUsers:    telegramUsers,
	}, nil
}

// Run long-polls for updates until the process stops.
func (b *Bot) Run() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		if update.Message.Contact != nil {
			b.handleContact(update.Message)
			continue
		}
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			continue
		}
		b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, "Welcome to the Lifesavers United blood request bot!\n\n"+
			"Share your contact (button below) to verify yourself, then send a request using /template.\n\n"+
			"Commands:\n"+
			"/template - Get a blank request template\n"+
			"/help - Show this help message")
		b.requestContact(msg.Chat.ID)

	case "help":
		b.sendMessage(msg.Chat.ID, "To raise a blood request, copy the /template, fill it in and send it back.\n\n"+
			"If a request for the same patient already exists, your message updates it instead of creating a duplicate. "+
			"Sending the same details for a closed request reopens it.\n\n"+
			"Commands:\n"+
			"/template - Get a blank request template\n"+
			"/help - Show this help message")

	case "template":
		b.sendMessage(msg.Chat.ID, "Copy this, fill in the details and send it back:\n\n"+requestTemplate)

	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleContact(msg *tgbotapi.Message) {
	contact := msg.Contact
	if contact.UserID != msg.From.ID {
		b.sendMessage(msg.Chat.ID, "Please share your own contact to verify yourself.")
		return
	}

	user := &domain.TelegramUser{
		TelegramID:  contact.UserID,
		PhoneNumber: phone.Normalize(contact.PhoneNumber),
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		Username:    msg.From.UserName,
	}

	if err := b.telegramUsers.Upsert(context.Background(), user); err != nil {
		log.Printf("bot: failed to register telegram user %d: %v", contact.UserID, err)
		b.sendMessage(msg.Chat.ID, "Something went wrong saving your contact. Please try again.")
		return
	}

	b.sendMessage(msg.Chat.ID, fmt.Sprintf("Thanks %s, you're verified! Use /template to raise a blood request.", user.DisplayName()))
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	submission, ok := ParseSubmission(msg.Text)
	if !ok {
		b.sendMessage(msg.Chat.ID, "I didn't recognize that as a request. Use /template to get the format, or /help for instructions.")
		return
	}

	user, err := b.telegramUsers.GetByTelegramID(context.Background(), msg.From.ID)
	if err != nil {
		log.Printf("bot: failed to look up telegram user %d: %v", msg.From.ID, err)
		b.sendMessage(msg.Chat.ID, "Something went wrong. Please try again.")
		return
	}
	if user == nil {
		b.sendMessage(msg.Chat.ID, "Please verify yourself first by sharing your contact.")
		b.requestContact(msg.Chat.ID)
		return
	}

	submission.Source = domain.SourceTelegramBot
	submission.SubmittedBy = user.DisplayName()
	submission.SubmittedByUID = fmt.Sprintf("tg:%d", user.TelegramID)

	outcome, err := b.reconcileService.Submit(context.Background(), submission)
	if err != nil {
		if errors.Is(err, reconcile.ErrSubmissionInFlight) {
			b.sendMessage(msg.Chat.ID, "This request is already being processed. Please wait a moment and try again.")
			return
		}
		log.Printf("bot: submission failed for telegram user %d: %v", msg.From.ID, err)
		b.sendMessage(msg.Chat.ID, "Something went wrong submitting your request. Please try again.")
		return
	}

	b.sendMessage(msg.Chat.ID, renderOutcome(outcome))
}

// renderOutcome turns a reconciliation outcome into a chat reply.
func renderOutcome(outcome *domain.ReconcileOutcome) string {
	switch {
	case outcome.Code == domain.CodeValidationError:
		return "Your request is missing some required details: " +
			strings.Join(outcome.MissingFields, ", ") +
			"\n\nPlease fill those in and resend."

	case outcome.Action == domain.ActionRejectedDuplicate:
		reply := "⚠️ " + outcome.Message
		if outcome.Existing != nil {
			reply += fmt.Sprintf("\n\nExisting request: %s at %s, %s units of %s.",
				outcome.Existing.PatientName, outcome.Existing.HospitalName,
				outcome.Existing.UnitsRequired, outcome.Existing.RequiredBloodGroup)
		}
		reply += "\nIf anything has changed, resend with the updated details."
		return reply

	case outcome.Action == domain.ActionCreated:
		return "✅ " + outcome.Message + "\nOur coordinators have been notified. Reference: " + outcome.RequestID

	case outcome.Action == domain.ActionReopened:
		return "🔄 " + outcome.Message + "\nA new donation cycle has started."

	default:
		return "✅ " + outcome.Message
	}
}

func (b *Bot) requestContact(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Tap the button below to share your contact:")
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("Share my contact"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: failed to send contact keyboard: %v", err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: failed to send message: %v", err)
	}
}
