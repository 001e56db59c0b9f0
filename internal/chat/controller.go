package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

var (
	ErrInterviewComplete = errors.New("interview already complete")
	ErrBusy              = errors.New("a message is already being answered")
)

const (
	retrievalK     = 5
	completionMode = "api"
)

// Controller owns one session's transcript while a turn is processed.
type Controller struct {
	mu        sync.Mutex
	session   *Session
	busy      bool
	completer Completer
	logger    *logging.Logger
	now       func() time.Time
}

func NewController(sess *Session, completer Completer, logger *logging.Logger) *Controller {
	if sess == nil {
		sess = &Session{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{session: sess, completer: completer, logger: logger, now: time.Now}
}

// Send appends the user's turn and the assistant's reply. Empty text without files
// does nothing and returns nil. A failed completion call is not an error: the
// reply is an apology and the turn can be retried.
func (c *Controller) Send(ctx context.Context, text string, files []Attachment) (*Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.session.Complete {
		c.mu.Unlock()
		return nil, ErrInterviewComplete
	}
	if text == "" && len(files) == 0 {
		c.mu.Unlock()
		return nil, nil
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true

	prior := history(c.session.Messages)
	refs := make([]string, 0, len(files))
	for range files {
		refs = append(refs, "blob:"+uuid.NewString())
	}
	c.session.Messages = append(c.session.Messages, newMessage(AuthorUser, text, c.now(), refs))
	c.mu.Unlock()

	prompt := text
	if prompt == "" {
		prompt = ImagePrompt
	}
	resp, err := c.completer.Complete(ctx, CompletionRequest{
		Message:      prompt,
		History:      prior,
		Attachments:  files,
		K:            retrievalK,
		Mode:         completionMode,
		UseFunctions: true,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		c.logger.Error("chat interaction interrupted", "error", err, "context", "chat.Controller.Send")
		reply := newMessage(AuthorAssistant, FailureMessage, c.now(), nil)
		c.session.Messages = append(c.session.Messages, reply)
		return &reply, nil
	}

	replyText := resp.Message
	if replyText == "" {
		replyText = NoResponse
	}
	reply := newMessage(AuthorAssistant, replyText, c.now(), nil)
	if resp.Report != nil {
		reply.ReportData = resp.Report
		if resp.Status == StatusComplete {
			c.session.Report = resp.Report
			c.session.Complete = true
		}
	}
	c.session.Messages = append(c.session.Messages, reply)
	return &reply, nil
}

// Session returns the current state.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &Session{}
}
