package services

import (
	"context"
	"fmt"
	"log"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/go-telegram/bot"
)

// CompletionNotifier congratulates a learner over Telegram when they
// finish a roadmap. It only fires for users with a linked chat id and
// never fails the completion itself; send errors are logged and
// dropped. A nil notifier is a valid, disabled notifier.
type CompletionNotifier struct {
	bot         *bot.Bot
	userRepo    *db.UserRepository
	roadmapRepo *db.RoadmapRepository
}

func NewCompletionNotifier(b *bot.Bot, userRepo *db.UserRepository, roadmapRepo *db.RoadmapRepository) *CompletionNotifier {
	return &CompletionNotifier{
		bot:         b,
		userRepo:    userRepo,
		roadmapRepo: roadmapRepo,
	}
}

func (n *CompletionNotifier) RoadmapCompleted(ctx context.Context, userID, roadmapID string) {
	if n == nil || n.bot == nil {
		return
	}

	user, err := n.userRepo.GetByID(userID)
	if err != nil {
		log.Printf("notifier: failed to load user %s: %v", userID, err)
		return
	}
	if user.TelegramChatID == 0 {
		return
	}

	roadmap, err := n.roadmapRepo.GetByID(roadmapID)
	if err != nil {
		log.Printf("notifier: failed to load roadmap %s: %v", roadmapID, err)
		return
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: user.TelegramChatID,
		Text:   completionMessage(user.Name, roadmap.Title),
	})
	if err != nil {
		log.Printf("notifier: failed to send completion message to chat %d: %v", user.TelegramChatID, err)
	}
}

func completionMessage(name, roadmapTitle string) string {
	if name == "" {
		return fmt.Sprintf("🎉 Congratulations! You have completed the %q roadmap.", roadmapTitle)
	}
	return fmt.Sprintf("🎉 Congratulations, %s! You have completed the %q roadmap.", name, roadmapTitle)
}
