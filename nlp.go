package main

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Free-text expense parsing: a single pass of independent matchers, each
// contributing to a running confidence score. Handles mixed English and
// Macedonian input.

// amountPatterns are tried in priority order; the first match wins. A bare
// number with no currency token defaults to MKD.
var amountPatterns = []struct {
	re       *regexp.Regexp
	currency string
}{
	{regexp.MustCompile(`(\d+(?:[,.]\d{1,2})?)\s*(?:den|денари|mkd|denar)`), "MKD"},
	{regexp.MustCompile(`(\d+(?:[,.]\d{1,2})?)\s*(?:eur|евра|€)`), "EUR"},
	{regexp.MustCompile(`(\d+(?:[,.]\d{1,2})?)\s*(?:usd|долари|\$)`), "USD"},
	{regexp.MustCompile(`(\d+(?:[,.]\d{1,2})?)`), "MKD"},
}

// categoryKeywords maps categories to their trigger words. Order matters:
// on a tie the earliest category wins, so this stays a slice rather than a
// map.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Food & Dining", []string{"food", "restaurant", "dinner", "lunch", "coffee", "pizza", "храна", "ресторан"}},
	{"Transportation", []string{"gas", "fuel", "bus", "taxi", "uber", "car", "бензин", "гориво", "автобус"}},
	{"Shopping", []string{"shopping", "clothes", "shirt", "shoes", "store", "шопинг", "облека", "чевли"}},
	{"Entertainment", []string{"movie", "cinema", "concert", "game", "филм", "кино", "концерт"}},
	{"Bills & Utilities", []string{"bill", "electricity", "water", "internet", "сметка", "струја", "вода"}},
	{"Healthcare", []string{"doctor", "medicine", "pharmacy", "доктор", "лек", "аптека"}},
}

var (
	amountStripRe = regexp.MustCompile(`(?i)\d+(?:[,.]\d{1,2})?\s*(?:den|денари|mkd|eur|usd|\$|€)`)
	fillerWordsRe = regexp.MustCompile(`(?i)\b(spent|paid|bought|today|yesterday|last night|купив|платив|потроших|денес|вчера)\b`)
	fillerPrepsRe = regexp.MustCompile(`(?i)\b(on|for|за|на)\b`)
)

// parseExpenseText extracts amount, currency, category, date and a cleaned
// description from free text. It never fails: invalid input yields the
// defined low-confidence fallback.
func parseExpenseText(text string, now time.Time) ParsedExpense {
	today := now.Format("2006-01-02")

	if strings.TrimSpace(text) == "" {
		return ParsedExpense{
			Description: "Invalid input - please provide text",
			Date:        today,
			Currency:    "MKD",
			Confidence:  0.1,
		}
	}

	result := ParsedExpense{Currency: "MKD"}
	originalText := strings.TrimSpace(text)
	cleanText := strings.ToLower(originalText)

	// Amount + currency: first pattern to match wins.
	amountMatched := false
	for _, p := range amountPatterns {
		m := p.re.FindStringSubmatch(cleanText)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		result.Amount = &amount
		result.Currency = p.currency
		result.Confidence += 0.4
		amountMatched = true
		break
	}

	// Category: most keyword hits wins, earliest entry wins ties.
	bestCategory := ""
	bestScore := 0
	for _, entry := range categoryKeywords {
		count := 0
		for _, kw := range entry.keywords {
			if strings.Contains(cleanText, kw) {
				count++
			}
		}
		if count > bestScore {
			bestCategory = entry.category
			bestScore = count
		}
	}
	if bestCategory != "" {
		cat := bestCategory
		result.Category = &cat
		result.Confidence += 0.3
	}

	// Date: explicit relative words score higher than the default of today.
	switch {
	case strings.Contains(cleanText, "today") || strings.Contains(cleanText, "денес"):
		result.Date = today
		result.Confidence += 0.15
	case strings.Contains(cleanText, "yesterday") || strings.Contains(cleanText, "вчера") ||
		strings.Contains(cleanText, "last night"):
		result.Date = now.AddDate(0, 0, -1).Format("2006-01-02")
		result.Confidence += 0.15
	default:
		result.Date = today
		result.Confidence += 0.05
	}

	// Description: start from the case-preserved text, strip the matched
	// amount and filler words, then capitalize. Too-short remainders fall
	// back to a category-derived label.
	description := originalText
	if amountMatched {
		description = amountStripRe.ReplaceAllString(description, "")
	}
	description = fillerWordsRe.ReplaceAllString(description, "")
	description = fillerPrepsRe.ReplaceAllString(description, "")
	description = strings.TrimSpace(description)

	if utf8.RuneCountInString(description) > 3 {
		result.Description = capitalize(description)
		result.Confidence += 0.25
	} else {
		if bestCategory != "" {
			result.Description = bestCategory + " expense"
		} else {
			result.Description = "Expense"
		}
		result.Confidence += 0.1
	}

	result.Confidence = clamp(result.Confidence, 0.1, 1)
	return result
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
