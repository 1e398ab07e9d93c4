package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	tiramisu "github.com/snow884/tiramisu-wallet-client"
)

var (
	pageLimit  int
	pageOffset int
	nftOnly    bool
)

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&pageLimit, "limit", 100, "number of entries to list")
	cmd.Flags().IntVar(&pageOffset, "offset", 0, "number of entries to skip")
}

func pagination() tiramisu.Pagination {
	return tiramisu.Pagination{Limit: pageLimit, Offset: pageOffset}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid identifier", s)
	}
	return id, nil
}

// printPage writes the count and the backend objects of a page.
func printPage[T any](page *tiramisu.Page[T], raw func(*T) json.RawMessage) error {
	results := make([]json.RawMessage, len(page.Results))
	for i := range page.Results {
		results[i] = raw(&page.Results[i])
	}
	b, err := json.Marshal(struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}{page.Count, results})
	if err != nil {
		return err
	}
	return printRaw(b)
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List the balances of the user",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		list := c.Balances
		if nftOnly {
			list = c.BalancesNFT
		}
		page, err := list(cmd.Context(), pagination())
		if err != nil {
			return err
		}
		return printPage(page, func(b *tiramisu.Balance) json.RawMessage { return b.Raw })
	}),
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List the asset catalogue",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		list := c.Assets
		if nftOnly {
			list = c.NFTs
		}
		page, err := list(cmd.Context(), pagination())
		if err != nil {
			return err
		}
		return printPage(page, func(a *tiramisu.Asset) json.RawMessage { return a.Raw })
	}),
}

var assetCmd = &cobra.Command{
	Use:   "asset <id>",
	Short: "Show an asset",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		asset, err := c.Asset(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printRaw(asset.Raw)
	}),
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List the marketplace offers",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		list := c.Listings
		if nftOnly {
			list = c.ListingsNFTs
		}
		page, err := list(cmd.Context(), pagination())
		if err != nil {
			return err
		}
		return printPage(page, func(l *tiramisu.Listing) json.RawMessage { return l.Raw })
	}),
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List the transactions of the user",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		page, err := c.Transactions(cmd.Context(), pagination())
		if err != nil {
			return err
		}
		return printPage(page, func(tx *tiramisu.Transaction) json.RawMessage { return tx.Raw })
	}),
}

var transactionCmd = &cobra.Command{
	Use:   "transaction <id>",
	Short: "Show a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, c *tiramisu.Client) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tx, err := c.Transaction(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printRaw(tx.Raw)
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{balancesCmd, assetsCmd, listingsCmd} {
		cmd.Flags().BoolVar(&nftOnly, "nft", false, "list collectibles only")
	}
	for _, cmd := range []*cobra.Command{balancesCmd, assetsCmd, listingsCmd, transactionsCmd} {
		addPageFlags(cmd)
	}
	rootCmd.AddCommand(balancesCmd, assetsCmd, assetCmd, listingsCmd, transactionsCmd, transactionCmd)
}
