// Package main is the terminal client for the Atelier platform.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/atelierhq/client-platform/internal/api"
	"github.com/atelierhq/client-platform/internal/chat"
	"github.com/atelierhq/client-platform/internal/config"
	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/internal/planner"
	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/internal/swr"
	"github.com/atelierhq/client-platform/pkg/logger"
)

const usage = `usage: atelier <command> [args]

commands:
  login                  authenticate (prompts for email/password)
  logout                 end the session and clear local data
  dashboard              show the studio overview
  accounts               list client accounts
  chat <account-id>      open a conversation
  tasks                  list planner tasks
  tasks add <title> <due RFC3339>   create a task with a reminder
  templates              list brand-guideline presets
`

type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *store.Store
	tokens *store.TokenStore
	cache  *store.CacheStore
	client *api.Client
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New("warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open local store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens := store.NewTokenStore(db)
	a := &app{
		cfg:    cfg,
		log:    log,
		store:  db,
		tokens: tokens,
		cache:  store.NewCacheStore(db),
	}
	a.client = api.New(api.Config{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.RequestTimeout,
		AuthTimeout: cfg.AuthTimeout,
	}, tokens, api.SessionHandlerFunc(func() {
		fmt.Fprintln(os.Stderr, "session expired — run 'atelier login'")
	}), log)

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx)
	case "logout":
		if err := a.client.Logout(ctx); err != nil {
			return err
		}
		if err := a.cache.DropAll(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	case "dashboard":
		return a.dashboard(ctx)
	case "accounts":
		return a.accounts(ctx)
	case "chat":
		if len(args) != 1 {
			return fmt.Errorf("usage: atelier chat <account-id>")
		}
		return a.chat(ctx, args[0])
	case "tasks":
		return a.tasks(ctx, args)
	case "templates":
		return a.templates(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	if resp.RequiresTwoFactor {
		fmt.Print("verification code: ")
		code, _ := reader.ReadString('\n')
		if _, err := a.client.VerifyTwoFactor(ctx, email, strings.TrimSpace(code)); err != nil {
			return err
		}
	}
	fmt.Println("logged in")
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	resource := swr.NewResource[*model.Dashboard]("admin_dashboard_v1", a.cache, a.log)
	return resource.Load(ctx, func(ctx context.Context) (*model.Dashboard, error) {
		return a.client.Dashboard(ctx)
	}, func(snap swr.Snapshot[*model.Dashboard]) {
		d := snap.Value
		if d == nil {
			return
		}
		tag := ""
		if snap.Stale {
			tag = " (cached)"
		}
		fmt.Printf("dashboard%s\n", tag)
		fmt.Printf("  active projects:    %d\n", d.ActiveProjects)
		fmt.Printf("  pending proposals:  %d\n", d.PendingProposals)
		fmt.Printf("  unread messages:    %d\n", d.UnreadMessages)
		fmt.Printf("  outstanding:        $%.2f\n", float64(d.OutstandingCents)/100)
	})
}

func (a *app) accounts(ctx context.Context) error {
	resource := swr.NewResource[[]model.Account]("accounts_v1", a.cache, a.log)
	return resource.Load(ctx, func(ctx context.Context) ([]model.Account, error) {
		return a.client.Accounts(ctx)
	}, func(snap swr.Snapshot[[]model.Account]) {
		for _, acc := range snap.Value {
			fmt.Printf("%s  %-28s %s\n", acc.ID, acc.CompanyName, acc.Status)
		}
	})
}

func (a *app) chat(ctx context.Context, accountID string) error {
	session := chat.NewSession(accountID, a.client, a.cache, a.log, chat.Config{
		PollInterval:   a.cfg.PollInterval,
		TypingDebounce: a.cfg.TypingDebounce,
		CacheWindow:    a.cfg.CacheWindowSize,
	}, nil)

	if err := session.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "showing cached messages; refresh failed: %v\n", err)
	}
	printConversation(session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	session.Focus(ctx)
	defer session.Blur()

	// Repaint when the poll merges new messages or typing flips.
	seen := len(session.Messages())
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				msgs := session.Messages()
				for _, m := range msgs[min(seen, len(msgs)):] {
					printMessage(&m)
				}
				seen = len(msgs)
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("type a message and press enter; /quit to leave")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "/quit" {
			return nil
		}
		if strings.TrimSpace(line) != "" {
			_ = session.Typing(ctx)
		}
		session.SetDraft(line)
		if err := session.Send(ctx, line); err != nil {
			if err == chat.ErrEmptyMessage {
				continue
			}
			// Rolled back; the draft still holds the typed text.
			fmt.Fprintf(os.Stderr, "send failed, not delivered: %v\n", err)
			fmt.Printf("(draft kept: %q)\n", session.Draft())
		}
	}
	return scanner.Err()
}

func printConversation(session *chat.Session) {
	timeline := session.Timeline()
	// Timeline is newest-first for bottom-anchored UIs; print oldest first.
	for i := len(timeline) - 1; i >= 0; i-- {
		entry := timeline[i]
		if entry.Kind == chat.EntrySeparator {
			fmt.Printf("--- %s ---\n", entry.Label)
			continue
		}
		printMessage(entry.Message)
	}
}

func printMessage(m *model.Message) {
	mark := ""
	switch m.Receipt() {
	case model.ReceiptPending:
		mark = " ◦"
	case model.ReceiptRead:
		mark = " ✓✓"
	case model.ReceiptSent:
		mark = " ✓"
	}
	fmt.Printf("[%s] %s: %s%s\n", m.CreatedAt.Local().Format("15:04"), m.SenderName, m.Content, mark)
}

func (a *app) tasks(ctx context.Context, args []string) error {
	if len(args) >= 1 && args[0] == "add" {
		if len(args) != 3 {
			return fmt.Errorf("usage: atelier tasks add <title> <due RFC3339>")
		}
		due, err := time.Parse(time.RFC3339, args[2])
		if err != nil {
			return fmt.Errorf("invalid due time: %w", err)
		}
		task, err := a.client.CreateTask(ctx, &model.CreateTaskRequest{
			Title:    args[1],
			DueAt:    due,
			Reminder: true,
		})
		if err != nil {
			return err
		}
		sched := planner.NewScheduler(planner.NotifierFunc(func(id, title, body string) {
			fmt.Printf("\nreminder: %s — %s\n", title, body)
		}), a.log, a.cfg.ReminderLead)
		if ok := sched.Schedule(task); ok {
			fmt.Printf("created %s, reminder set for %s\n", task.ID, due.Add(-a.cfg.ReminderLead).Local().Format(time.Kitchen))
		} else {
			fmt.Printf("created %s (due too soon for a reminder)\n", task.ID)
		}
		return nil
	}

	tasks, err := a.client.Tasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Printf("[%s] %s  (due %s)\n", done, t.Title, t.DueAt.Local().Format("Jan 2 15:04"))
	}
	return nil
}

func (a *app) templates(ctx context.Context) error {
	templates, err := a.client.BrandTemplates(ctx)
	if err != nil {
		return err
	}
	for _, t := range templates {
		fmt.Printf("%-16s %s  %s\n", t.ID, t.Name, strings.Join(t.Palette, " "))
	}
	return nil
}
