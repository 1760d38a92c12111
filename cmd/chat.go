// ABOUTME: Chat command for the planner CLI
// ABOUTME: Drafts a plan with the assistant from flags or a line-based prompt

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/markalston/maarif-planner/internal/chat"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/spf13/cobra"
)

var (
	chatMessages []string
	chatSave     bool
	chatPlanType string
	chatAgeBand  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Draft a plan with the AI assistant",
	Long: `Send messages to the planning assistant.

With --message (repeatable) the messages are sent in order and the replies
printed. Without it, messages are read line by line from stdin; type /save to
save the finalized draft, /reset to start over, or /quit.

Example:
  planner chat --message "Autumn leaves plan" --message "For 2024-10-15" --save`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalNotify()
		defer cancel()

		exitCode := runChat(ctx, os.Stdin, os.Stdout, chatOptions{
			messages: chatMessages,
			save:     chatSave,
			planType: chatPlanType,
			ageBand:  chatAgeBand,
		})
		if exitCode != 0 {
			cancel()
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringArrayVarP(&chatMessages, "message", "m", nil, "Message to send (repeatable)")
	chatCmd.Flags().BoolVar(&chatSave, "save", false, "Save the plan if the assistant finalizes one")
	chatCmd.Flags().StringVar(&chatPlanType, "type", string(models.PlanDaily), "Plan type: daily or monthly")
	chatCmd.Flags().StringVar(&chatAgeBand, "age-band", "", "Age band (default: your profile's)")
}

type chatOptions struct {
	messages []string
	save     bool
	planType string
	ageBand  string
}

// runChat runs a conversation and returns exit code
func runChat(ctx context.Context, r io.Reader, w io.Writer, opts chatOptions) int {
	planType, err := models.ParsePlanType(opts.planType)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	return withApp(ctx, w, func(a *app) int {
		ageBand := models.AgeBand(opts.ageBand)
		if opts.ageBand != "" {
			if ageBand, err = models.ParseAgeBand(opts.ageBand); err != nil {
				fmt.Fprintf(w, "Error: %v\n", err)
				return 2
			}
		} else if user, _ := a.session.User(ctx); user != nil {
			ageBand = user.PreferredAgeBand()
		}

		conv := chat.New(a.client, chat.Options{
			HistoryLimit: a.cfg.ChatHistoryLimit,
			AgeBand:      ageBand,
			PlanType:     planType,
		})

		if len(opts.messages) > 0 {
			return runChatScripted(ctx, w, conv, opts.messages, opts.save)
		}
		return runChatInteractive(ctx, r, w, conv)
	})
}

func runChatScripted(ctx context.Context, w io.Writer, conv *chat.Conversation, messages []string, save bool) int {
	for _, msg := range messages {
		if err := conv.Send(ctx, msg); err != nil {
			return reportError(w, err)
		}
		if !IsJSONOutput() {
			printLastReply(w, conv)
		}
	}

	var saved *models.Created
	var savedType models.PlanType
	if save {
		if conv.Draft() == nil {
			fmt.Fprintln(w, "Error: the assistant has not finalized a plan yet; nothing saved")
			return 1
		}
		var err error
		if saved, savedType, err = conv.Save(ctx); err != nil {
			return reportError(w, err)
		}
	}

	if IsJSONOutput() {
		writeChatJSON(w, conv, saved, savedType)
		return 0
	}
	if saved != nil {
		fmt.Fprintf(w, "\nSaved %s plan %s. View it with: planner plans show %s --type %s\n", savedType, saved.ID, saved.ID, savedType)
	} else if d := conv.Draft(); d != nil {
		fmt.Fprintf(w, "\nDraft ready: %q for %s. Re-run with --save to keep it.\n", d.Title, d.Date)
	}
	return 0
}

func writeChatJSON(w io.Writer, conv *chat.Conversation, saved *models.Created, typ models.PlanType) {
	out := map[string]any{
		"state":    conv.State().String(),
		"messages": conv.Messages(),
	}
	if d := conv.Draft(); d != nil {
		out["draft"] = map[string]any{"type": d.Type, "date": d.Date, "ageBand": d.AgeBand, "title": d.Title, "planJson": d.Body}
	}
	if saved != nil {
		out["saved"] = map[string]any{"id": saved.ID, "type": typ}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(w, string(data))
}

func printLastReply(w io.Writer, conv *chat.Conversation) {
	msgs := conv.Messages()
	fmt.Fprintf(w, "assistant: %s\n", msgs[len(msgs)-1].Content)
}

func runChatInteractive(ctx context.Context, r io.Reader, w io.Writer, conv *chat.Conversation) int {
	fmt.Fprintf(w, "assistant: %s\n", chat.WelcomeMessage)
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return 0
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return 0
		case "/reset":
			conv.Reset()
			fmt.Fprintf(w, "assistant: %s\n", chat.WelcomeMessage)
			continue
		case "/save":
			created, typ, err := conv.Save(ctx)
			if errors.Is(err, chat.ErrNoDraft) {
				fmt.Fprintln(w, "Nothing to save yet.")
				continue
			}
			if err != nil {
				if code := reportError(w, err); errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoSession) {
					return code
				}
				continue
			}
			fmt.Fprintf(w, "Saved %s plan %s.\n", typ, created.ID)
			fmt.Fprintf(w, "assistant: %s\n", chat.WelcomeMessage)
			continue
		}

		err := conv.Send(ctx, line)
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoSession) {
			return reportError(w, err)
		}
		if ctx.Err() != nil {
			return 2
		}
		printLastReply(w, conv)
		if conv.State() == chat.DraftReady {
			fmt.Fprintf(w, "(draft %q ready; type /save to keep it)\n", conv.Draft().Title)
		}
	}
}
