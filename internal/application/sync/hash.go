package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/catalogbridge/backend/internal/domain/integration"
)

// hashPage fingerprints one fetched page. Rows are rendered in delivery
// order with sorted field names so the same payload always produces the
// same hash regardless of map iteration order.
func hashPage(rows []integration.RawRow) string {
	h := fnv.New64a()
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s;", k, stringify(row[k]))
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// payloadHash fingerprints the significant fields of a normalized row.
// It is compared against the hash stored on the matched product to
// short-circuit no-op updates. The forced-refresh flag bypasses the
// comparison but never changes the computation itself.
func payloadHash(row *NormalizedRow) string {
	fields := []string{
		"mtrl=" + row.Mtrl,
		"sku=" + row.SKU,
		"name=" + row.Name,
		"desc=" + row.Description,
		"price=" + row.Price.String(),
		fmt.Sprintf("stock=%d", row.Stock),
		"cat=" + row.CategoryPath,
		"subcat=" + row.Subcategory,
		"colour=" + row.Colour,
		"brand=" + row.Brand,
		fmt.Sprintf("backorder=%t", row.Backorder),
		"relitem=" + row.RelatedParentMtrl,
		"relitems=" + strings.Join(row.RelatedMtrls, ","),
	}

	attrs := make([]string, 0, len(row.Attributes))
	for k, v := range row.Attributes {
		attrs = append(attrs, "attr:"+k+"="+v)
	}
	sort.Strings(attrs)
	fields = append(fields, attrs...)

	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
