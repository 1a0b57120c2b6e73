package skills

import (
	"fmt"
	"sort"
	"strings"

	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/schema"
)

// Free, keyless rate APIs. The first is primary, the second a fallback.
var (
	exchangeRateAPI = "https://api.exchangerate.host/latest"
	frankfurterAPI  = "https://api.frankfurter.app/latest"
)

var currencyNames = map[string]string{
	"USD": "US Dollar", "EUR": "Euro", "GBP": "British Pound",
	"JPY": "Japanese Yen", "CHF": "Swiss Franc", "CAD": "Canadian Dollar",
	"AUD": "Australian Dollar", "CNY": "Chinese Yuan", "INR": "Indian Rupee",
	"MXN": "Mexican Peso", "BRL": "Brazilian Real", "KRW": "South Korean Won",
	"SGD": "Singapore Dollar", "HKD": "Hong Kong Dollar", "NOK": "Norwegian Krone",
	"SEK": "Swedish Krona", "DKK": "Danish Krone", "NZD": "New Zealand Dollar",
	"ZAR": "South African Rand", "RUB": "Russian Ruble", "TRY": "Turkish Lira",
	"PLN": "Polish Zloty", "THB": "Thai Baht", "IDR": "Indonesian Rupiah",
	"MYR": "Malaysian Ringgit", "PHP": "Philippine Peso", "CZK": "Czech Koruna",
	"ILS": "Israeli Shekel", "CLP": "Chilean Peso", "AED": "UAE Dirham",
}

// CurrencySkill converts amounts and reports exchange rates using free
// keyless APIs.
type CurrencySkill struct {
	fetcher fetch.Fetcher
}

func NewCurrencySkill(fetcher fetch.Fetcher) *CurrencySkill {
	return &CurrencySkill{fetcher: fetcher}
}

func (s *CurrencySkill) Name() string        { return "currency" }
func (s *CurrencySkill) Description() string { return "Currency: convert, exchange rates" }

type currencyConvertInput struct {
	Amount       float64 `json:"amount" jsonschema:"description=Amount to convert"`
	FromCurrency string  `json:"from_currency" jsonschema:"description=Source currency code (e.g. USD)"`
	ToCurrency   string  `json:"to_currency" jsonschema:"description=Target currency code (e.g. EUR)"`
}

type currencyRatesInput struct {
	Base    string `json:"base,omitempty" jsonschema:"description=Base currency code (default: USD)"`
	Targets string `json:"targets,omitempty" jsonschema:"description=Comma-separated target currencies"`
}

type currencyListInput struct{}

func (s *CurrencySkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("currency_convert", "Convert amount between currencies", currencyConvertInput{}, s.convert),
		newTool("currency_rates", "Get exchange rates for a base currency", currencyRatesInput{}, s.rates),
		newTool("currency_list", "List available currency codes", currencyListInput{}, s.list),
	}
}

type ratesResponse struct {
	Success *bool              `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

func (s *CurrencySkill) fetchRates(base string) (map[string]float64, error) {
	var primary ratesResponse
	err := fetch.GetJSON(s.fetcher, exchangeRateAPI+"?base="+base, &primary)
	if err == nil && (primary.Success == nil || *primary.Success) && len(primary.Rates) > 0 {
		return primary.Rates, nil
	}

	var fallback ratesResponse
	if err := fetch.GetJSON(s.fetcher, frankfurterAPI+"?from="+base, &fallback); err != nil {
		return nil, err
	}
	if fallback.Rates == nil {
		fallback.Rates = map[string]float64{}
	}
	fallback.Rates[base] = 1.0
	return fallback.Rates, nil
}

func (s *CurrencySkill) convert(args schema.Args) (string, error) {
	amount := args.Float("amount", 0)
	from := strings.ToUpper(args.String("from_currency", ""))
	to := strings.ToUpper(args.String("to_currency", ""))

	rates, err := s.fetchRates(from)
	if err != nil {
		return fmt.Sprintf("Error fetching rates: %v", err), nil
	}

	rate, ok := rates[to]
	if !ok {
		return fmt.Sprintf("Currency not found: %s", to), nil
	}

	converted := amount * rate
	return jsonBlob(map[string]interface{}{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"rate":      round(rate, 6),
		"result":    round(converted, 2),
		"formatted": fmt.Sprintf("%.2f %s = %.2f %s", amount, from, converted, to),
	}), nil
}

func (s *CurrencySkill) rates(args schema.Args) (string, error) {
	base := strings.ToUpper(args.String("base", "USD"))
	if base == "" {
		base = "USD"
	}

	rates, err := s.fetchRates(base)
	if err != nil {
		return fmt.Sprintf("Error fetching rates: %v", err), nil
	}

	var wanted []string
	if targets := args.String("targets", ""); targets != "" {
		for _, t := range strings.Split(targets, ",") {
			wanted = append(wanted, strings.ToUpper(strings.TrimSpace(t)))
		}
	} else {
		wanted = []string{"EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "CNY", "INR", "MXN", "BRL"}
	}

	filtered := map[string]float64{}
	for _, code := range wanted {
		if v, ok := rates[code]; ok {
			filtered[code] = round(v, 4)
		}
	}

	return jsonBlob(map[string]interface{}{
		"base":  base,
		"rates": filtered,
	}), nil
}

func (s *CurrencySkill) list(schema.Args) (string, error) {
	codes := make([]string, 0, len(currencyNames))
	for code := range currencyNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := map[string]string{}
	for _, code := range codes {
		out[code] = currencyNames[code]
	}
	return jsonBlob(out), nil
}
