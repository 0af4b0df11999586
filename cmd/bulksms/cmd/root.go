package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"uk.co.dudmesh.bulksms/internal/boot"
	"uk.co.dudmesh.bulksms/internal/handlers"
	"uk.co.dudmesh.bulksms/internal/service/sms"
)

type SMSService interface {
	handlers.SMSService
}

// serviceFactory is swapped out in tests.
var serviceFactory = func(stderr io.Writer) (SMSService, error) {
	config, err := boot.Load()
	if err != nil {
		return nil, err
	}
	return sms.New(config, sms.WithLogOutput(stderr))
}

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type rootOptions struct {
	output string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "bulksms",
		Short: "Send bulk SMS batches and reconcile their delivery status",
		Long: `bulksms sends one message to many recipients through the SMS gateway,
tagging every call so delivery status can be pulled back per batch.

Gateway credentials are read from ZETTAI_REACH_TOKEN, ZETTAI_REACH_CLIENT_ID
and ZETTAI_REACH_SMS_CODE.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputJSON && opts.output != outputYAML {
				return fmt.Errorf("unknown output format %q: use json or yaml", opts.output)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputJSON, "Output format: json or yaml")

	rootCmd.AddCommand(
		newBatchSendCmd(opts),
		newBatchStatusCmd(opts),
		newSendCmd(opts),
		newStatusCmd(opts),
	)
	return rootCmd
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
