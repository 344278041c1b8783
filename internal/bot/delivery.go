package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	httperrors "github.com/jw6ventures/calbot/internal/http/errors"
)

// maxUpdateBytes bounds webhook request bodies.
const maxUpdateBytes = 1 << 20

// RegisterCommands publishes the bot's command list to Telegram clients.
func RegisterCommands(api API) error {
	cmds := tgbotapi.NewSetMyCommands(tgbotapi.BotCommand{
		Command:     calendarCommand,
		Description: "Show the calendar",
	})
	if _, err := api.Request(cmds); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// UseWebhook registers url as the update endpoint.
func UseWebhook(api API, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// UsePolling removes any registered webhook; Telegram refuses getUpdates
// while one is set.
func UsePolling(api API) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Run handles updates with workers goroutines until ctx is done or updates
// is closed, then waits for in-flight updates to finish.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update, workers int) {
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case update, ok := <-updates:
					if !ok {
						return
					}
					b.HandleUpdate(ctx, update)
				}
			}
		}()
	}
	wg.Wait()
}

// ServeHTTP receives webhook updates. Authentication of the caller happens
// in the router.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err := dec.Decode(&update); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid update")
		return
	}

	b.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}
