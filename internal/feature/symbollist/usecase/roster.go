package usecase

import "bubble_backend/internal/feature/symbollist/domain/entity"

// displayNames は表示名の静的テーブルです。
var displayNames = map[string]string{
	"NVDA":  "NVIDIA Corporation",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"META":  "Meta Platforms Inc.",
	"AMD":   "Advanced Micro Devices",
	"TSLA":  "Tesla Inc.",
	"AAPL":  "Apple Inc.",
	"INTC":  "Intel Corporation",
	"AMZN":  "Amazon.com Inc.",
	"CRM":   "Salesforce Inc.",
	"PLTR":  "Palantir Technologies",
	"SNOW":  "Snowflake Inc.",
	"NET":   "Cloudflare Inc.",
	"CRWD":  "CrowdStrike Holdings",
	"ZS":    "Zscaler Inc.",
	"PANW":  "Palo Alto Networks",
	"NOW":   "ServiceNow Inc.",
	"DOCN":  "DigitalOcean Holdings",
	"AI":    "C3.ai Inc.",
	"PATH":  "UiPath Inc.",
	"ASML":  "ASML Holding",
	"AVGO":  "Broadcom Inc.",
	"QCOM":  "Qualcomm Inc.",
	"MU":    "Micron Technology",
	"LRCX":  "Lam Research",
	"KLAC":  "KLA Corporation",
	"ANET":  "Arista Networks",
	"MDB":   "MongoDB Inc.",
	"DDOG":  "Datadog Inc.",
	"ESTC":  "Elastic N.V.",
}

// trackedSymbols はAIバブル銘柄の表示順です。
var trackedSymbols = []string{
	"NVDA", "MSFT", "GOOGL", "META", "AMD",
	"TSLA", "AAPL", "INTC", "AMZN", "CRM",
	"PLTR", "SNOW", "NET", "CRWD", "ZS",
	"PANW", "NOW", "DOCN", "AI", "PATH",
}

// dotcomSymbols はドットコムバブル期の代表銘柄です。
var dotcomSymbols = []string{
	"CSCO", "ORCL", "INTC", "MSFT", "DELL",
	"IBM", "HPQ", "SUNW", "YHOO", "AMZN",
}

// DisplayName returns the display name for symbol, or the symbol itself when
// the table has no entry.
func DisplayName(symbol string) string {
	if name, ok := displayNames[symbol]; ok {
		return name
	}
	return symbol
}

// TrackedSymbols returns a copy of the static AI roster in display order.
func TrackedSymbols() []string {
	return append([]string(nil), trackedSymbols...)
}

// FallbackCompanies は静的テーブルから銘柄一覧を組み立てます。
func FallbackCompanies() []entity.Company {
	return companiesFor(trackedSymbols)
}

// DotcomCompanies は比較用のドットコム銘柄一覧を返します。
func DotcomCompanies() []entity.Company {
	return companiesFor(dotcomSymbols)
}

func companiesFor(symbols []string) []entity.Company {
	out := make([]entity.Company, 0, len(symbols))
	for i, s := range symbols {
		out = append(out, entity.Company{
			Symbol:      s,
			DisplayName: DisplayName(s),
			IsActive:    true,
			SortKey:     i + 1,
		})
	}
	return out
}
