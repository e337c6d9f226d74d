package channels

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chorusbot/chorus/internal/bus"
)

const cliMaxMsgLen = 8192

// CLIChannel reads lines from stdin and prints persona replies to stdout.
// It is always registered so the engine can be exercised without any
// platform credentials.
type CLIChannel struct {
	Base
}

func NewCLIChannel(b bus.Bus) *CLIChannel {
	return &CLIChannel{Base: NewBase(bus.ChannelCLI, b, nil)}
}

func (c *CLIChannel) Name() string        { return string(bus.ChannelCLI) }
func (c *CLIChannel) MaxMessageSize() int { return cliMaxMsgLen }

func (c *CLIChannel) Start(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep the channel alive so the rest of
				// the process is unaffected when run non-interactively.
				<-ctx.Done()
				return ctx.Err()
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			c.HandleMessage("local", "stdin", text, uuid.NewString(), false, "", nil, nil)
		}
	}
}

func (c *CLIChannel) Send(_ context.Context, chatID, text string) error {
	_, err := fmt.Fprintf(os.Stdout, "[%s] %s> %s\n", time.Now().Format("15:04:05"), chatID, text)
	return err
}
