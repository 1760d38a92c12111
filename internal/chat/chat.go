// ABOUTME: Plan drafting conversation with the AI assistant
// ABOUTME: Holds the in-memory history and the finalized draft until saved

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
)

// WelcomeMessage opens every conversation.
const WelcomeMessage = "Hello! I am the planning assistant. I can help you create daily and monthly plans aligned with the preschool curriculum.\n\nHow can I help?"

const (
	fallbackReply   = "Plan created!"
	failureReply    = "Sorry, something went wrong. Please try again."
	connectionReply = "Connection error. Please check your internet connection."
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("still waiting for the assistant")
	ErrNoDraft      = errors.New("no finalized plan to save")
)

// State is where the conversation is in a request cycle.
type State int

const (
	Idle State = iota
	AwaitingReply
	DraftReady
)

func (s State) String() string {
	switch s {
	case AwaitingReply:
		return "awaiting_ai_reply"
	case DraftReady:
		return "draft_ready"
	}
	return "idle"
}

// Options configures a conversation.
type Options struct {
	// HistoryLimit caps how many prior messages are sent with each request.
	// Zero sends the whole history.
	HistoryLimit int
	AgeBand      models.AgeBand
	PlanType     models.PlanType
	// KeepAfterSave leaves the transcript in place after a successful save
	// instead of starting over with the welcome message.
	KeepAfterSave bool
	Now           func() time.Time
}

// Draft is a finalized plan waiting to be saved.
type Draft struct {
	Type    models.PlanType
	Date    string
	AgeBand models.AgeBand
	Title   string
	Content models.PlanContent
	Body    json.RawMessage
}

// Conversation is the chat state for one screen. It is not safe for
// concurrent use; the TUI drives it from its update loop.
type Conversation struct {
	client   *client.Client
	opts     Options
	state    State
	messages []models.ChatMessage
	draft    *Draft
}

// New starts a conversation with the welcome message.
func New(c *client.Client, opts Options) *Conversation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.AgeBand.Valid() {
		opts.AgeBand = models.DefaultAgeBand
	}
	if opts.PlanType == "" {
		opts.PlanType = models.PlanDaily
	}
	conv := &Conversation{client: c, opts: opts}
	conv.Reset()
	return conv
}

// Reset discards the transcript and the draft.
func (c *Conversation) Reset() {
	c.messages = []models.ChatMessage{{
		Role:      models.RoleAssistant,
		Content:   WelcomeMessage,
		Timestamp: c.opts.Now(),
	}}
	c.draft = nil
	c.state = Idle
}

func (c *Conversation) State() State { return c.state }

// Messages returns the visible transcript.
func (c *Conversation) Messages() []models.ChatMessage {
	return append([]models.ChatMessage(nil), c.messages...)
}

// Draft returns the pending draft, or nil.
func (c *Conversation) Draft() *Draft { return c.draft }

// SetPlanType chooses daily or monthly for the next requests.
func (c *Conversation) SetPlanType(t models.PlanType) { c.opts.PlanType = t }

func (c *Conversation) PlanType() models.PlanType { return c.opts.PlanType }

// history returns the messages sent as context, bounded by HistoryLimit.
func (c *Conversation) history(prior []models.ChatMessage) []models.ChatMessage {
	if c.opts.HistoryLimit > 0 && len(prior) > c.opts.HistoryLimit {
		prior = prior[len(prior)-c.opts.HistoryLimit:]
	}
	return append([]models.ChatMessage{}, prior...)
}

// Begin appends the user's message and returns the request to send. The
// message shows up immediately, before any reply.
func (c *Conversation) Begin(text string) (*models.ChatRequest, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if c.state == AwaitingReply {
		return nil, ErrBusy
	}

	req := &models.ChatRequest{
		Message:  text,
		History:  c.history(c.messages),
		AgeBand:  c.opts.AgeBand,
		PlanType: c.opts.PlanType,
	}
	c.messages = append(c.messages, models.ChatMessage{Role: models.RoleUser, Content: text, Timestamp: c.opts.Now()})
	c.state = AwaitingReply
	return req, nil
}

// Receive applies the assistant's reply, or the error that replaced it.
// Failures other than an expired session are shown in the transcript and
// returned.
func (c *Conversation) Receive(raw json.RawMessage, err error) error {
	c.state = Idle
	if c.draft != nil {
		c.state = DraftReady
	}

	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNoSession):
		case errors.Is(err, client.ErrNetwork):
			c.say(connectionReply)
		default:
			c.say(failureReply)
		}
		return err
	}

	reply, perr := ParseReply(raw)
	if perr != nil {
		c.say(failureReply)
		return perr
	}
	c.say(reply.Text())

	if reply.Finalize {
		c.draft = c.newDraft(reply)
		c.state = DraftReady
		slog.Debug("chat draft ready", "type", c.draft.Type, "date", c.draft.Date)
	}
	return nil
}

// Abandon drops an outstanding request whose reply will never be applied.
// The user's message stays in the transcript.
func (c *Conversation) Abandon() {
	if c.state != AwaitingReply {
		return
	}
	c.state = Idle
	if c.draft != nil {
		c.state = DraftReady
	}
}

// Send runs Begin, the request and Receive in one call.
func (c *Conversation) Send(ctx context.Context, text string) error {
	req, err := c.Begin(text)
	if err != nil {
		return err
	}
	raw, err := c.client.Chat(ctx, req)
	return c.Receive(raw, err)
}

// Request performs the chat call for req. It touches no conversation
// state, so it can run off the update loop.
func (c *Conversation) Request(ctx context.Context, req *models.ChatRequest) (json.RawMessage, error) {
	return c.client.Chat(ctx, req)
}

func (c *Conversation) say(text string) {
	c.messages = append(c.messages, models.ChatMessage{Role: models.RoleAssistant, Content: text, Timestamp: c.opts.Now()})
}

func (c *Conversation) newDraft(reply *Reply) *Draft {
	content := models.DecodePlanContent(reply.Plan)
	d := &Draft{
		Type:    c.opts.PlanType,
		Date:    content.Date,
		AgeBand: content.AgeBand,
		Content: content,
		Body:    reply.Plan,
	}
	if t, err := models.ParsePlanType(content.Type); err == nil {
		d.Type = t
	}
	if d.Date == "" {
		d.Date = c.opts.Now().Format("2006-01-02")
	}
	if !d.AgeBand.Valid() {
		d.AgeBand = c.opts.AgeBand
	}
	d.Title = content.Theme
	if d.Title == "" {
		d.Title = fmt.Sprintf("AI-assisted %s plan", d.Type)
	}
	return d
}

// PendingSave returns the create request for the current draft. It does
// not change the conversation.
func (c *Conversation) PendingSave() (models.PlanType, *models.NewPlan, error) {
	if c.draft == nil || c.state == AwaitingReply {
		return "", nil, ErrNoDraft
	}
	d := c.draft

	body := &models.NewPlan{AgeBand: d.AgeBand, Title: d.Title, PlanJSON: d.Body}
	if d.Type == models.PlanMonthly {
		body.Month = d.Date
		if len(d.Date) >= 7 {
			body.Month = d.Date[:7]
		}
	} else {
		body.Date = d.Date
	}
	return d.Type, body, nil
}

// Saved clears the draft after a successful create and, unless
// KeepAfterSave is set, starts the conversation over.
func (c *Conversation) Saved() {
	c.draft = nil
	c.state = Idle
	if !c.opts.KeepAfterSave {
		c.Reset()
	}
}

// Save posts the draft to the collection matching its type and applies
// Saved on success.
func (c *Conversation) Save(ctx context.Context) (*models.Created, models.PlanType, error) {
	typ, body, err := c.PendingSave()
	if err != nil {
		return nil, "", err
	}
	created, err := c.client.CreatePlan(ctx, typ, body)
	if err != nil {
		return nil, "", err
	}
	slog.Info("Saved plan from chat", "type", typ, "id", created.ID)
	c.Saved()
	return created, typ, nil
}

// Reply is the readable part of an assistant response.
type Reply struct {
	Finalize          bool
	Message           string
	FollowUpQuestions []string
	MissingFields     []string
	// Plan is the candidate plan body: the planData member when the
	// assistant wraps it, otherwise the whole response.
	Plan json.RawMessage
}

// ParseReply reads an assistant response of either shape.
func ParseReply(raw json.RawMessage) (*Reply, error) {
	var body struct {
		Finalize          bool              `json:"finalize"`
		Message           models.Text       `json:"message"`
		FollowUpQuestions models.StringList `json:"followUpQuestions"`
		MissingFields     models.StringList `json:"missingFields"`
		PlanData          json.RawMessage   `json:"planData"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("invalid assistant reply: %w", err)
	}
	r := &Reply{
		Finalize:          body.Finalize,
		Message:           string(body.Message),
		FollowUpQuestions: body.FollowUpQuestions,
		MissingFields:     body.MissingFields,
		Plan:              raw,
	}
	if len(body.PlanData) > 0 && string(body.PlanData) != "null" {
		r.Plan = body.PlanData
	}
	return r, nil
}

// Text is what the transcript shows for the reply.
func (r *Reply) Text() string {
	if r.Message != "" {
		return r.Message
	}
	if len(r.FollowUpQuestions) > 0 {
		return strings.Join(r.FollowUpQuestions, "\n")
	}
	return fallbackReply
}
