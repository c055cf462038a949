package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gobid-cli",
		Short: "GoBid CLI tool",
		Long:  `A command line interface for interacting with the GoBid auction API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoBid API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		createCmd(),
		getCmd(),
		listCmd(),
		bidCmd(),
		closeCmd(),
		retractCmd(),
		highestBidCmd(),
		totalBidCmd(),
		instructionsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createCmd() *cobra.Command {
	var (
		owner   string
		rate    string
		minimum string
	)

	cmd := &cobra.Command{
		Use:   "create <item> <denom> <creator>",
		Short: "Create a new auction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/auctions", map[string]any{
				"item":               args[0],
				"bid_denom":          args[1],
				"creator":            args[2],
				"owner":              owner,
				"commission_rate":    rate,
				"commission_minimum": minimum,
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Auction owner (defaults to creator)")
	cmd.Flags().StringVar(&rate, "rate", "0", "Commission rate, e.g. 0.02")
	cmd.Flags().StringVar(&minimum, "minimum", "0", "Commission minimum in bid denom tokens")

	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <auction-id>",
		Short: "Show an auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/auctions/" + args[0])
		},
	}
}

func listCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List auctions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(fmt.Sprintf("/api/v1/auctions?limit=%d&offset=%d", limit, offset))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func bidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bid <auction-id> <sender> <denom> <amount>",
		Short: "Place a bid",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/auctions/"+args[0]+"/bids", map[string]any{
				"sender": args[1],
				"funds": []map[string]string{
					{"denom": args[2], "amount": args[3]},
				},
			})
		},
	}
}

func closeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <auction-id> <sender>",
		Short: "Close an auction and pay out the owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/auctions/"+args[0]+"/close", map[string]any{
				"sender": args[1],
			})
		},
	}
}

func retractCmd() *cobra.Command {
	var beneficiary string

	cmd := &cobra.Command{
		Use:   "retract <auction-id> <sender>",
		Short: "Retract a losing bid after close",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/auctions/"+args[0]+"/retract", map[string]any{
				"sender":      args[1],
				"beneficiary": beneficiary,
			})
		},
	}

	cmd.Flags().StringVar(&beneficiary, "beneficiary", "", "Alternate refund destination")

	return cmd
}

func highestBidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "highest-bid <auction-id>",
		Short: "Show the current leader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/auctions/" + args[0] + "/highest-bid")
		},
	}
}

func totalBidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total-bid <auction-id> <address>",
		Short: "Show one bidder's cumulative contribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/auctions/" + args[0] + "/bids/" + args[1])
		},
	}
}

func instructionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instructions <auction-id>",
		Short: "List transfer instructions for an auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/auctions/" + args[0] + "/instructions")
		},
	}
}

func postJSON(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	return doRequest(req)
}

func getJSON(path string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}

	return doRequest(req)
}

func doRequest(req *http.Request) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}

	printJSON(pretty)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to format response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
