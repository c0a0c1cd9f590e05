package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/catalogbridge/backend/internal/domain/integration"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// NormalizedRow is a raw source record projected into canonical fields.
// Field lookup tolerates the upstream's varying names and casing; raw
// untyped maps never travel past this boundary.
type NormalizedRow struct {
	Mtrl              string
	SKU               string
	Name              string
	Description       string
	Price             decimal.Decimal
	Stock             int
	CategoryPath      string
	Subcategory       string
	Colour            string
	Brand             string
	Backorder         bool
	Attributes        map[string]string
	RelatedParentMtrl string
	RelatedMtrls      []string
	// HasRelatedPayload is true when the source explicitly supplied
	// relationship fields, even if empty. Absence of the fields leaves
	// previously persisted relationship state untouched.
	HasRelatedPayload bool
}

// Identity returns the row's best external identifier for log context
func (r *NormalizedRow) Identity() string {
	if r.Mtrl != "" {
		return r.Mtrl
	}
	return r.SKU
}

// Upstream field aliases, checked in order
var (
	fieldMtrl         = []string{"mtrl", "MTRL", "material_id"}
	fieldSKU          = []string{"sku", "code", "CODE"}
	fieldName         = []string{"name", "description", "DESC", "title"}
	fieldDescription  = []string{"long_description", "remarks", "REMARKS"}
	fieldPrice        = []string{"price", "pricer", "PRICER", "retail_price"}
	fieldStock        = []string{"stock", "qty", "QTY1", "quantity"}
	fieldCategory     = []string{"category", "commercial_category", "category_path"}
	fieldSubcategory  = []string{"subcategory", "commercial_subcategory"}
	fieldColour       = []string{"colour", "color", "COLOR"}
	fieldBrand        = []string{"brand", "manufacturer", "MTRMARK"}
	fieldBackorder    = []string{"backorder", "allow_backorder"}
	fieldRelatedMtrl  = []string{"related_item_mtrl", "relitem"}
	fieldRelatedMtrls = []string{"related_item_mtrls", "relitems"}
)

// attributePrefix marks upstream columns carried over as free-form
// product attributes (e.g. "attr_size" -> attribute "size")
const attributePrefix = "attr_"

// NormalizeRow projects one raw source record into a NormalizedRow.
// A row without any external identifier or without a name is malformed
// and reported as an input validation error.
func NormalizeRow(raw integration.RawRow) (NormalizedRow, error) {
	row := NormalizedRow{
		Mtrl:         rawString(raw, fieldMtrl...),
		SKU:          rawString(raw, fieldSKU...),
		Name:         rawString(raw, fieldName...),
		Description:  rawString(raw, fieldDescription...),
		CategoryPath: rawString(raw, fieldCategory...),
		Subcategory:  rawString(raw, fieldSubcategory...),
		Colour:       rawString(raw, fieldColour...),
		Brand:        rawString(raw, fieldBrand...),
		Backorder:    rawBool(raw, fieldBackorder...),
	}

	if row.Mtrl == "" && row.SKU == "" {
		return row, shared.NewDomainError("ROW_NO_IDENTITY", "Row carries neither material id nor SKU")
	}
	if row.Name == "" {
		return row, shared.NewDomainError("ROW_NO_NAME", "Row carries no item name")
	}

	price, err := rawDecimal(raw, fieldPrice...)
	if err != nil {
		return row, shared.NewDomainError("ROW_BAD_PRICE", fmt.Sprintf("Unparseable price for %s", row.Identity()))
	}
	row.Price = price
	row.Stock = rawInt(raw, fieldStock...)

	row.Attributes = rawAttributes(raw)

	if key, ok := firstPresent(raw, fieldRelatedMtrl...); ok {
		row.HasRelatedPayload = true
		row.RelatedParentMtrl = stringify(raw[key])
	}
	if key, ok := firstPresent(raw, fieldRelatedMtrls...); ok {
		row.HasRelatedPayload = true
		row.RelatedMtrls = stringList(raw[key])
	}

	return row, nil
}

// firstPresent returns the first alias present in the raw row
func firstPresent(raw integration.RawRow, keys ...string) (string, bool) {
	for _, k := range keys {
		if _, ok := raw[k]; ok {
			return k, true
		}
	}
	return "", false
}

func rawString(raw integration.RawRow, keys ...string) string {
	if key, ok := firstPresent(raw, keys...); ok {
		return stringify(raw[key])
	}
	return ""
}

func rawInt(raw integration.RawRow, keys ...string) int {
	key, ok := firstPresent(raw, keys...)
	if !ok {
		return 0
	}
	switch v := raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		// upstream sends quantities as decimal strings ("12.00")
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return int(d.IntPart())
		}
	}
	return 0
}

func rawDecimal(raw integration.RawRow, keys ...string) (decimal.Decimal, error) {
	key, ok := firstPresent(raw, keys...)
	if !ok {
		return decimal.Zero, nil
	}
	switch v := raw[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	case nil:
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported price type %T", raw[key])
}

func rawBool(raw integration.RawRow, keys ...string) bool {
	key, ok := firstPresent(raw, keys...)
	if !ok {
		return false
	}
	switch v := raw[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

// rawAttributes collects attr_-prefixed columns as attribute values
func rawAttributes(raw integration.RawRow) map[string]string {
	var attrs map[string]string
	for k, v := range raw {
		name, ok := strings.CutPrefix(strings.ToLower(k), attributePrefix)
		if !ok || name == "" {
			continue
		}
		val := stringify(v)
		if val == "" {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[name] = val
	}
	return attrs
}

// stringify renders a scalar raw value as a trimmed string
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// stringList renders an array value, or a comma/pipe separated string,
// as a list of trimmed non-empty strings
func stringList(v any) []string {
	var parts []string
	switch t := v.(type) {
	case []string:
		parts = t
	case []any:
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
	case string:
		s := strings.ReplaceAll(t, "|", ",")
		parts = strings.Split(s, ",")
	default:
		return nil
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
