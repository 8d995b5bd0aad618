package text

import (
	"strconv"
	"strings"

	"github.com/shoplens/shoplens/internal/domain"
)

// contentField holds the BM25-searchable text (title, description, category).
const contentField = "__content"

// tagFields are the attributes mirrored as TAG fields.
var tagFields = []string{
	domain.AttrCategory,
	domain.AttrShop,
	domain.AttrCurrency,
	domain.AttrStatus,
	domain.AttrRegion,
}

// numericFields are the attributes mirrored as NUMERIC fields. Absent values
// coerce to "0" so range filters stay applicable across the whole corpus.
var numericFields = []string{
	domain.AttrPrice,
	domain.AttrDiscount,
}

// flattenProduct converts a product into the flat hash document the FT index
// is built over. update_date is stored as unix seconds for range filtering.
func flattenProduct(p *domain.Product) map[string]string {
	fields := make(map[string]string, len(tagFields)+len(numericFields)+2)

	var content []string
	if title := p.StringAttr(domain.AttrTitle); title != "" {
		// Title doubles as its own weighted TEXT field.
		fields[domain.AttrTitle] = title
		content = append(content, title)
	}
	if desc := p.StringAttr(domain.AttrDescription); desc != "" {
		content = append(content, desc)
	}
	if cat := p.StringAttr(domain.AttrCategory); cat != "" {
		content = append(content, cat)
	}
	fields[contentField] = strings.Join(content, " ")

	for _, name := range tagFields {
		if v := p.StringAttr(name); v != "" {
			fields[name] = v
		}
	}

	for _, name := range numericFields {
		v, _ := p.NumericAttr(name)
		fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	if t, ok := p.UpdateDate(); ok {
		fields[domain.AttrUpdateDate] = strconv.FormatInt(t.Unix(), 10)
	} else {
		fields[domain.AttrUpdateDate] = "0"
	}

	return fields
}
