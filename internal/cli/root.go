package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// options общие флаги команд
type options struct {
	token   string
	apiURL  string
	timeout time.Duration
	output  string
}

// NewRootCommand собирает дерево команд maxctl
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "maxctl",
		Short:         "Administrative client for the MAX Bot API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("unsupported output %q: use %q or %q", opts.output, outputTable, outputJSON)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.token, "token", os.Getenv("MAX_BOT_TOKEN"), "Bot token (default $MAX_BOT_TOKEN)")
	flags.StringVar(&opts.apiURL, "api-url", envOr("MAX_API_URL", maxapi.DefaultBaseURL), "MAX Bot API base URL")
	flags.DurationVar(&opts.timeout, "timeout", maxapi.DefaultTimeout, "Request timeout")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table, json")

	root.AddCommand(
		newMeCommand(opts),
		newSendCommand(opts),
		newUpdatesCommand(opts),
		newWebhookCommand(opts),
		newSubscriptionsCommand(opts),
	)

	return root
}

// Execute запускает maxctl с аргументами процесса
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// client создает клиент API. Вызывающий закрывает его через Close.
func (o *options) client() (*maxapi.Client, error) {
	return maxapi.New(o.token, maxapi.WithBaseURL(o.apiURL), maxapi.WithTimeout(o.timeout))
}

// render печатает value как JSON или вызывает table
func (o *options) render(w io.Writer, value any, table func(io.Writer)) error {
	if o.output == outputJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
	table(w)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
