// Command marketctl is a small operator tool for the property marketplace.
// `fee quote` computes the fee breakdown for a listing price offline;
// `property get` and `property list` query a running marketplace service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apartchain/smartcontracts/pkg/fee"
)

const usage = "usage: marketctl fee quote --price <amount> [--booking-bps <n>] [--buyer-num <n>] [--seller-num <n>] | marketctl property get --id <n> [--base-url <url>] | marketctl property list [--base-url <url>]"

func main() {
	if len(os.Args) < 2 {
		failSummary(usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "fee":
		runFee(os.Args[2:])
	case "property":
		runProperty(os.Args[2:])
	default:
		failSummary("unknown command")
		os.Exit(2)
	}
}

func runFee(args []string) {
	if len(args) < 1 || args[0] != "quote" {
		failSummary(usage)
		os.Exit(2)
	}
	fs := flag.NewFlagSet("fee quote", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	price := fs.Uint64("price", 0, "listing price in minor units")
	bookingBps := fs.Uint64("booking-bps", 1000, "booking fee in basis points of price")
	buyerNum := fs.Uint64("buyer-num", 200, "buyer fee numerator over the platform fee base")
	sellerNum := fs.Uint64("seller-num", 200, "seller fee numerator over the platform fee base")
	if err := fs.Parse(args[1:]); err != nil {
		failSummary(err.Error())
		os.Exit(2)
	}
	if *price == 0 {
		failSummary("--price is required and must be positive")
		os.Exit(2)
	}

	cfg := fee.Config{
		BookingFeeBps:      *bookingBps,
		BuyerFeeNumerator:  *buyerNum,
		SellerFeeNumerator: *sellerNum,
	}
	if err := cfg.Validate(); err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}

	booking, err := fee.BookingFee(*price, cfg.BookingFeeBps)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}
	base, err := fee.PlatformFeeBase(*price)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}
	buyer, err := fee.BuyerFee(*price, cfg.BuyerFeeNumerator)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}
	seller, err := fee.SellerFee(*price, cfg.SellerFeeNumerator)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}
	commission, err := fee.AgencyCommission(*price)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}

	passSummary(map[string]any{
		"price":             *price,
		"platform_fee_base": base,
		"booking_fee":       booking,
		"buyer_fee":         buyer,
		"seller_fee":        seller,
		"agency_commission": commission,
	})
}

func runProperty(args []string) {
	if len(args) < 1 {
		failSummary(usage)
		os.Exit(2)
	}
	switch args[0] {
	case "get":
		runPropertyGet(args[1:])
	case "list":
		runPropertyList(args[1:])
	default:
		failSummary(usage)
		os.Exit(2)
	}
}

func runPropertyGet(args []string) {
	fs := flag.NewFlagSet("property get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.Uint64("id", 0, "property id")
	baseURL := fs.String("base-url", "http://localhost:8080", "marketplace service base url")
	if err := fs.Parse(args); err != nil {
		failSummary(err.Error())
		os.Exit(2)
	}
	if *id == 0 {
		failSummary("--id is required")
		os.Exit(2)
	}
	fetch(fmt.Sprintf("%s/marketplace/v1/properties/%d", strings.TrimRight(*baseURL, "/"), *id))
}

func runPropertyList(args []string) {
	fs := flag.NewFlagSet("property list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	baseURL := fs.String("base-url", "http://localhost:8080", "marketplace service base url")
	if err := fs.Parse(args); err != nil {
		failSummary(err.Error())
		os.Exit(2)
	}
	fetch(strings.TrimRight(*baseURL, "/") + "/marketplace/v1/properties")
}

func fetch(url string) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		failSummary(err.Error())
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		failSummary("decode response failed: " + err.Error())
		os.Exit(1)
	}
	if resp.StatusCode != 200 {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if e, ok := body["error"].(map[string]any); ok {
			if msg, ok := e["message"].(string); ok {
				reason = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg)
			}
		}
		failSummary(reason)
		os.Exit(1)
	}
	delete(body, "request_id")
	passSummary(body)
}

func passSummary(fields map[string]any) {
	out := map[string]any{"status": "PASS", "timestamp_utc": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range fields {
		out[k] = v
	}
	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}

func failSummary(reason string) {
	b, _ := json.Marshal(map[string]any{
		"status":        "FAIL",
		"reason":        reason,
		"timestamp_utc": time.Now().UTC().Format(time.RFC3339),
	})
	fmt.Println(string(b))
}
