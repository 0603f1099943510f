// Command simulate replays the booking chat in the terminal, without HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"citabot/internal/app"
	"citabot/internal/config"
	"citabot/internal/conversation"
	"citabot/internal/events"
	"citabot/internal/logging"
	"citabot/internal/models"
)

type options struct {
	configPath string
	pay        bool
	validate   bool
	turn       time.Duration
	deadline   time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config file")
	flag.BoolVar(&opts.pay, "pay", true, "send the payment receipt when asked")
	flag.BoolVar(&opts.validate, "validate", true, "validate the new booking from reception")
	flag.DurationVar(&opts.turn, "turn", 0, "override the pause between chat turns")
	flag.DurationVar(&opts.deadline, "deadline", 0, "override the payment deadline")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.turn > 0 {
		cfg.Simulation.TurnInterval = opts.turn
	}
	if opts.deadline > 0 {
		cfg.Simulation.PaymentDeadline = opts.deadline
	}

	logger, closer, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	a, err := app.New(cfg, app.MemoryStores(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statuses := make(chan conversation.Status, 16)
	a.Bus.Subscribe(events.EventMessageAppended, func(e *events.Event) error {
		var msg models.Message
		if err := json.Unmarshal(e.Payload, &msg); err != nil {
			return err
		}
		printMessage(msg)
		return nil
	})
	a.Bus.Subscribe(events.EventConversationChanged, func(e *events.Event) error {
		var p events.ConversationEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		select {
		case statuses <- conversation.Status(p.Status):
		default:
		}
		return nil
	})

	if err := a.Reset(ctx); err != nil {
		return err
	}
	if _, err := a.Player.Start(ctx); err != nil {
		return err
	}

	if err := waitFor(ctx, statuses, conversation.StatusAwaitingPayment); err != nil {
		return err
	}
	if !opts.pay {
		fmt.Printf("... esperando el pago (%s)\n", cfg.Simulation.PaymentDeadline)
		if err := waitFor(ctx, statuses, conversation.StatusTimedOut); err != nil {
			return err
		}
		return printBookings(ctx, a)
	}

	if _, err := a.Player.SimulatePayment(ctx); err != nil {
		return err
	}
	if err := waitFor(ctx, statuses, conversation.StatusCompleted); err != nil {
		return err
	}

	if opts.validate {
		if err := validateFromReception(ctx, a, cfg.Simulation.ConfirmationDelay); err != nil {
			return err
		}
	}
	return printBookings(ctx, a)
}

func waitFor(ctx context.Context, statuses <-chan conversation.Status, want conversation.Status) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-statuses:
			if st == want {
				return nil
			}
		}
	}
}

// validateFromReception confirms the booking made in the chat and waits for
// the bot to announce it.
func validateFromReception(ctx context.Context, a *app.App, delay time.Duration) error {
	b, err := a.ValidateFromReception(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("... recepción valida el pago de %s (%s %s)\n", b.Client, b.Date, b.Time)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay + 100*time.Millisecond):
		return nil
	}
}

func printMessage(msg models.Message) {
	who := "Bot"
	if msg.Sender == models.SenderUser {
		who = "Cliente"
	}
	text := msg.Text
	if msg.IsImage {
		text = "[comprobante de pago]"
	}
	if msg.ShowQR {
		text += "\n[QR de pago]"
	}
	fmt.Printf("[%s] %s:\n  %s\n", msg.Time, who, strings.ReplaceAll(text, "\n", "\n  "))
}

func printBookings(ctx context.Context, a *app.App) error {
	list, err := a.Bookings.List(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nReservas (%d):\n", len(list))
	for _, b := range list {
		state := "Pendiente"
		if b.Paid() {
			state = "Confirmada"
		}
		fmt.Printf("  #%d %s %s  %-18s %-18s %s\n", b.ID, b.Date, b.Time, b.Client, b.Service, state)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
