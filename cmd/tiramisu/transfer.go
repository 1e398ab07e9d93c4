package main

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	tiramisu "github.com/snow884/tiramisu-wallet-client"
)

var (
	noWait      bool
	strict      bool
	maxAttempts int
	description string
	qrFile      string
)

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("%q is not a valid amount", s)
	}
	return amount, nil
}

// pollOptions turns the wait flags into poll options.
func pollOptions() []tiramisu.PollOption {
	var opts []tiramisu.PollOption
	if maxAttempts > 0 {
		opts = append(opts, tiramisu.MaxAttempts(maxAttempts))
	}
	if strict {
		opts = append(opts, tiramisu.StrictStatus())
	}
	opts = append(opts, tiramisu.OnStatus(func(tx *tiramisu.Transaction) {
		log.Debugf("[Wait] Transaction %d is %s", tx.ID, tx.Status)
	}))
	return opts
}

func addWaitFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return once the transaction was created")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "status fetches before giving up (default from configuration)")
}

// finish prints the transaction, waiting for target unless --no-wait is set.
func finish(cmd *cobra.Command, c *tiramisu.Client, tx *tiramisu.Transaction, target tiramisu.Status) error {
	if !noWait {
		var err error
		tx, err = c.WaitForStatus(cmd.Context(), tx.ID, target, pollOptions()...)
		if err != nil {
			return err
		}
	}
	return printRaw(tx.Raw)
}

// printInvoice prints an invoice and writes it as a QR code if --qr is set.
func printInvoice(invoice string) error {
	fmt.Println(invoice)
	if qrFile == "" {
		return nil
	}
	qr, err := qrcode.Encode(invoice, qrcode.Medium, 256)
	if err != nil {
		return err
	}
	return os.WriteFile(qrFile, qr, 0o644)
}

var waitCmd = &cobra.Command{
	Use:   "wait <id> <status>",
	Short: "Wait until a transaction reaches a status",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tx, err := c.WaitForStatus(cmd.Context(), id, tiramisu.Status(args[1]), pollOptions()...)
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var sendBTCCmd = &cobra.Command{
	Use:   "send-btc <address> <amount>",
	Short: "Pay satoshis on-chain",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		tx, err := c.SendBTC(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		return finish(cmd, c, tx, tiramisu.StatusOutboundInvoicePaid)
	}),
}

var sendLightningCmd = &cobra.Command{
	Use:   "send-lightning <invoice>",
	Short: "Pay a Lightning invoice",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		if bolt11, err := tiramisu.DecodeInvoice(args[0]); err == nil {
			log.Infof("[Send] Paying %d msat: %s", bolt11.MSatoshi, bolt11.Description)
		}
		tx, err := c.SendBTCLightning(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return finish(cmd, c, tx, tiramisu.StatusLndInboundInvoicePaid)
	}),
}

var sendAssetCmd = &cobra.Command{
	Use:   "send-asset <invoice>",
	Short: "Pay a Taproot asset invoice without waiting for settlement",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		tx, err := c.SendTaprootAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var sendInternalCmd = &cobra.Command{
	Use:   "send-internal <user id> <acronym> <amount>",
	Short: "Move funds to another user of the wallet",
	Args:  cobra.ExactArgs(3),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		user, err := parseID(args[0])
		if err != nil {
			return err
		}
		currency, err := c.CurrencyID(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		tx, err := c.SendInternal(cmd.Context(), user, currency, amount, description)
		if err != nil {
			return err
		}
		return finish(cmd, c, tx, tiramisu.StatusInternalFinished)
	}),
}

var receiveBTCCmd = &cobra.Command{
	Use:   "receive-btc <amount>",
	Short: "Create an invoice for satoshis",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		invoice, err := c.ReceiveBTCInvoice(cmd.Context(), amount, description, pollOptions()...)
		if err != nil {
			return err
		}
		return printInvoice(invoice)
	}),
}

var receiveAssetCmd = &cobra.Command{
	Use:   "receive-asset <acronym> <amount>",
	Short: "Create an invoice for a Taproot asset",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		currency, err := c.CurrencyID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		invoice, err := c.ReceiveTaprootAssetInvoice(cmd.Context(), amount, currency, description, pollOptions()...)
		if err != nil {
			return err
		}
		return printInvoice(invoice)
	}),
}

func init() {
	waitCmd.Flags().BoolVar(&strict, "strict", false, "reject statuses the client does not know")
	waitCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "status fetches before giving up (default from configuration)")
	for _, cmd := range []*cobra.Command{sendBTCCmd, sendLightningCmd, sendInternalCmd} {
		addWaitFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{sendInternalCmd, receiveBTCCmd, receiveAssetCmd} {
		cmd.Flags().StringVarP(&description, "description", "d", "", "description of the transaction")
	}
	for _, cmd := range []*cobra.Command{receiveBTCCmd, receiveAssetCmd} {
		cmd.Flags().StringVar(&qrFile, "qr", "", "also write the invoice as PNG QR code to this file")
		cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "status fetches before giving up (default from configuration)")
	}
	rootCmd.AddCommand(waitCmd, sendBTCCmd, sendLightningCmd, sendAssetCmd, sendInternalCmd, receiveBTCCmd, receiveAssetCmd)
}
