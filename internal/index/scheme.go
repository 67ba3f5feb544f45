package index

var (
	bMeta     = []byte("meta")      // slug -> metaBytes
	bIdxOrder = []byte("idx_order") // seq -> slug, build order
	bIdxCat   = []byte("idx_cat")   // category -> sub-bucket of seq+slug
	bCatOrder = []byte("cat_order") // seq -> category, first appearance
	bOutHash  = []byte("out_hash")  // output path -> content hash, kept across rebuilds
)

// contentBuckets are dropped and recreated by Rebuild.
var contentBuckets = [][]byte{bMeta, bIdxOrder, bIdxCat, bCatOrder}
