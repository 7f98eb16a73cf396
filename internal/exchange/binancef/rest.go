package binancef

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const symbolStatusTrading = "TRADING"

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// CountTradableSymbols queries the exchange info endpoint and returns the
// number of actively tradable symbols quoted in quoteAsset. It is a
// startup diagnostic only; callers treat an error as "count unknown".
func CountTradableSymbols(ctx context.Context, restURL, quoteAsset string) (int, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, restURL+"/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build exchange info request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("exchange info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange info request returned status %d", resp.StatusCode)
	}

	var info exchangeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, fmt.Errorf("failed to decode exchange info: %w", err)
	}

	count := 0
	for _, s := range info.Symbols {
		if s.Status == symbolStatusTrading && s.QuoteAsset == quoteAsset {
			count++
		}
	}
	return count, nil
}
