package pivot

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// fingerprintKey is the fixed key used for cache fingerprints. Hashes
// only need to be stable within one process lifetime, so a hardcoded
// key is fine.
var fingerprintKey = []byte("pivotgrid fingerprint key\x00\x00\x00\x00\x00\x00\x00")

// Fingerprint derives the cache key for one computation: the full
// configuration shape and expansion state, plus a sample of the dataset
// (first row, last row, and length) instead of the full contents. The
// sample keeps hashing O(1) on large datasets at the cost of a small
// collision risk when two datasets agree on boundary rows and length.
func Fingerprint(rows []DataRow, cfg *Configuration, expandedPaths [][]string) string {
	var b strings.Builder
	writeConfigShape(&b, cfg)
	for _, p := range expandedPaths {
		b.WriteString("|expand:")
		b.WriteString(string(makeTupleKey(p)))
	}
	fmt.Fprintf(&b, "|rows:%d", len(rows))
	if len(rows) > 0 {
		opts := ojg.Options{Sort: true}
		b.WriteString("|first:")
		b.WriteString(oj.JSON(rows[0], &opts))
		b.WriteString("|last:")
		b.WriteString(oj.JSON(rows[len(rows)-1], &opts))
	}

	h, err := highwayhash.New(fingerprintKey)
	if err != nil {
		// Key length is fixed at 32 bytes; construction cannot fail.
		return b.String()
	}
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// writeConfigShape serializes every configuration element that affects
// the output, in declaration order. Field names are included because
// they surface as header labels.
func writeConfigShape(b *strings.Builder, cfg *Configuration) {
	b.WriteString("cfg")
	for _, f := range cfg.Rows {
		fmt.Fprintf(b, "|row:%s:%s:%s", f.ID, f.Name, f.DataType)
	}
	for _, f := range cfg.Columns {
		fmt.Fprintf(b, "|col:%s:%s:%s", f.ID, f.Name, f.DataType)
	}
	for _, v := range cfg.Values {
		fmt.Fprintf(b, "|val:%s:%s:%s", v.Field.ID, v.Aggregation, v.Label())
	}
	for _, f := range cfg.Filters {
		if !f.Enabled {
			continue
		}
		opts := ojg.Options{Sort: true}
		fmt.Fprintf(b, "|filter:%s:%s:%s", f.Field.ID, f.Operator, oj.JSON(f.Value, &opts))
	}
	fmt.Fprintf(b, "|opts:%t:%t|max:%d:%d",
		cfg.Options.ShowGrandTotals, cfg.Options.ShowSubtotals, cfg.MaxRows, cfg.MaxColumns)
}
