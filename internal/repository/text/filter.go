package text

import (
	"fmt"
	"strings"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

// BuildQuery assembles a complete FT.SEARCH expression from a keyword and a
// generic filter. The keyword is escaped and matched against the combined
// content field; filter conditions become TAG and NUMERIC clauses. An empty
// keyword with an empty filter matches everything.
func BuildQuery(keyword string, f *filter.Filter) string {
	var parts []string

	if clause := buildFilter(f); clause != "" {
		parts = append(parts, clause)
	}

	if keyword != "" {
		parts = append(parts, fmt.Sprintf("@%s:(%s)", contentField, escapeQuery(keyword)))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// buildFilter translates the generic filter into FT.SEARCH clauses. The
// filter must already be validated; malformed values only weaken matching.
func buildFilter(f *filter.Filter) string {
	if f.IsEmpty() {
		return ""
	}

	var parts []string

	if f.Category != "" {
		parts = append(parts, tagClause(domain.AttrCategory, f.Category))
	}
	if f.Shop != "" {
		parts = append(parts, tagClause(domain.AttrShop, f.Shop))
	}
	if f.Status != "" {
		parts = append(parts, tagClause(domain.AttrStatus, f.Status))
	}
	if f.Region != "" {
		parts = append(parts, tagClause(domain.AttrRegion, f.Region))
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		// Price bounds only make sense within one currency.
		parts = append(parts, tagClause(domain.AttrCurrency, f.Currency))
		parts = append(parts, rangeClause(domain.AttrPrice, f.MinPrice, f.MaxPrice))
	} else if f.Currency != "" {
		parts = append(parts, tagClause(domain.AttrCurrency, f.Currency))
	}

	if f.MinDiscount != nil {
		parts = append(parts, rangeClause(domain.AttrDiscount, f.MinDiscount, nil))
	}

	if ts, ok := f.UpdatedAfterUnix(); ok {
		parts = append(parts, fmt.Sprintf("@%s:[%d +inf]", domain.AttrUpdateDate, ts))
	}

	return strings.Join(parts, " ")
}

func tagClause(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(value))
}

func rangeClause(field string, minVal, maxVal *float64) string {
	minBound := "-inf"
	maxBound := "+inf"
	if minVal != nil {
		minBound = fmt.Sprintf("%g", *minVal)
	}
	if maxVal != nil {
		maxBound = fmt.Sprintf("%g", *maxVal)
	}
	return fmt.Sprintf("@%s:[%s %s]", field, minBound, maxBound)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
