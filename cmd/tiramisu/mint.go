package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	tiramisu "github.com/snow884/tiramisu-wallet-client"
)

var (
	mintAcronym     string
	mintName        string
	mintDescription string
	mintSupply      int64
	mintPicture     string
	priceSat        int64
)

func openPicture() (*tiramisu.File, error) {
	if mintPicture == "" {
		return nil, nil
	}
	return tiramisu.OpenFile(mintPicture)
}

var mintAssetCmd = &cobra.Command{
	Use:   "mint-asset",
	Short: "Mint a fungible Taproot asset and wait until it is minted",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		picture, err := openPicture()
		if err != nil {
			return err
		}
		asset, _, err := c.MintAssetAndWait(cmd.Context(), tiramisu.MintParams{
			Acronym:     mintAcronym,
			Name:        mintName,
			Description: mintDescription,
			Supply:      mintSupply,
			Picture:     picture,
		}, pollOptions()...)
		if err != nil {
			return err
		}
		return printRaw(asset.Raw)
	}),
}

var mintNFTCmd = &cobra.Command{
	Use:   "mint-nft",
	Short: "Mint a collectible and wait until it is minted",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		picture, err := openPicture()
		if err != nil {
			return err
		}
		if picture == nil {
			return fmt.Errorf("a collectible needs a --picture")
		}
		tx, err := c.MintNFTAndWait(cmd.Context(), tiramisu.MintNFTParams{
			Name:        mintName,
			Description: mintDescription,
			Picture:     picture,
		}, pollOptions()...)
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var listCmd = &cobra.Command{
	Use:   "list <acronym>",
	Short: "Offer an asset on the marketplace",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		currency, err := c.CurrencyID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var tx *tiramisu.Transaction
		if priceSat > 0 {
			tx, err = c.ListNFTAsset(cmd.Context(), currency, priceSat)
		} else {
			tx, err = c.ListAsset(cmd.Context(), currency)
		}
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var buyCmd = &cobra.Command{
	Use:   "buy <acronym> [amount]",
	Short: "Buy an asset, or a collectible when no amount is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		currency, err := c.CurrencyID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var tx *tiramisu.Transaction
		if len(args) == 1 {
			tx, err = c.BuyNFTAndWait(cmd.Context(), currency, pollOptions()...)
		} else {
			amount, perr := parseAmount(args[1])
			if perr != nil {
				return perr
			}
			tx, err = c.BuyTaprootAssetAndWait(cmd.Context(), currency, amount, pollOptions()...)
		}
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var sellCmd = &cobra.Command{
	Use:   "sell <acronym> <amount>",
	Short: "Sell an asset on the marketplace",
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
		tx, err := c.SellTaprootAssetAndWait(cmd.Context(), currency, amount, pollOptions()...)
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

var decodeCmd = &cobra.Command{
	Use:   "decode <invoice>",
	Short: "Decode a Lightning invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bolt11, err := tiramisu.DecodeInvoice(args[0])
		if err != nil {
			return err
		}
		b, err := json.Marshal(bolt11)
		if err != nil {
			return err
		}
		return printRaw(b)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{mintAssetCmd, mintNFTCmd} {
		cmd.Flags().StringVar(&mintName, "name", "", "name of the asset")
		cmd.Flags().StringVar(&mintDescription, "description", "", "description of the asset")
		cmd.Flags().StringVar(&mintPicture, "picture", "", "JPEG or PNG picture of the asset")
		cmd.MarkFlagRequired("name")
	}
	mintAssetCmd.Flags().StringVar(&mintAcronym, "acronym", "", "acronym of the asset")
	mintAssetCmd.Flags().Int64Var(&mintSupply, "supply", 0, "number of units to mint")
	mintAssetCmd.MarkFlagRequired("acronym")
	mintAssetCmd.MarkFlagRequired("supply")
	listCmd.Flags().Int64Var(&priceSat, "price", 0, "price in satoshis, lists a collectible when set")
	for _, cmd := range []*cobra.Command{mintAssetCmd, mintNFTCmd, buyCmd, sellCmd} {
		cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "status fetches before giving up (default from configuration)")
	}
	rootCmd.AddCommand(mintAssetCmd, mintNFTCmd, listCmd, buyCmd, sellCmd, decodeCmd)
}
