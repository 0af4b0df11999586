package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"uk.co.dudmesh.bulksms/internal/model"
)

var errNothingAccepted = errors.New("no message was accepted by the gateway")

func newBatchSendCmd(root *rootOptions) *cobra.Command {
	var (
		to       []string
		file     string
		message  string
		groupTag string
	)
	cmd := &cobra.Command{
		Use:   "batch-send",
		Short: "Send one message to many recipients",
		Example: `  bulksms batch-send --to 09011112222,09033334444 -m "Hello"
  bulksms batch-send --file numbers.txt -m "Hello" --group-tag campaign_1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(to) == 0 && file == "" {
				return fmt.Errorf("must provide either --to or --file")
			}
			if len(to) > 0 && file != "" {
				return fmt.Errorf("cannot provide both --to and --file")
			}

			params := &model.BatchSendParams{
				PhoneNumbers: to,
				Message:      message,
				GroupTag:     groupTag,
			}
			if file != "" {
				text, err := readRecipients(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				params.PhoneNumbersText = text
			}

			smsService, err := serviceFactory(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := smsService.BatchSend(cmd.Context(), params)
			if err != nil {
				return err
			}
			report := result.Report()
			if err := render(cmd.OutOrStdout(), root.output, report); err != nil {
				return err
			}
			if !report.Success {
				return errNothingAccepted
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "Recipient phone numbers, comma separated or repeated")
	cmd.Flags().StringVar(&file, "file", "", "File with one phone number per line, - for stdin")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message body")
	cmd.Flags().StringVar(&groupTag, "group-tag", "", "Batch tag, defaults to batch_<unix millis>")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func readRecipients(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading recipients: %w", err)
	}
	return string(data), nil
}

func newBatchStatusCmd(root *rootOptions) *cobra.Command {
	var groupTag, date string
	cmd := &cobra.Command{
		Use:   "batch-status",
		Short: "Reconcile delivery and reservation status for a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			smsService, err := serviceFactory(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := smsService.BatchStatus(cmd.Context(), model.ReconcileQuery{GroupTag: groupTag, Date: date})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), root.output, result)
		},
	}
	cmd.Flags().StringVar(&groupTag, "group-tag", "", "Batch tag used when sending")
	cmd.Flags().StringVar(&date, "date", "", "Send date, YYYY-MM-DD or YYYYMMDD")
	return cmd
}
