package cmd

import (
	"github.com/spf13/cobra"
	"uk.co.dudmesh.bulksms/internal/model"
)

func newSendCmd(root *rootOptions) *cobra.Command {
	var to, message, clientTag string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single message",
		RunE: func(cmd *cobra.Command, args []string) error {
			smsService, err := serviceFactory(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := smsService.Send(cmd.Context(), &model.SendParams{
				PhoneNumber: to,
				Message:     message,
				ClientTag:   clientTag,
			})
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), root.output, result.Report()); err != nil {
				return err
			}
			if result.Ack != nil {
				return result.Ack.Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient phone number")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message body")
	cmd.Flags().StringVar(&clientTag, "client-tag", "", "Client tag, defaults to test_<unix millis>")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	var clientTag, date string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Look up delivery status by client tag or date",
		RunE: func(cmd *cobra.Command, args []string) error {
			smsService, err := serviceFactory(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			lookup, err := smsService.Status(cmd.Context(), model.StatusQuery{ClientTag: clientTag, Date: date})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), root.output, lookup.Report())
		},
	}
	cmd.Flags().StringVar(&clientTag, "client-tag", "", "Client tag, matched by prefix")
	cmd.Flags().StringVar(&date, "date", "", "Send date, YYYY-MM-DD or YYYYMMDD")
	return cmd
}
