package importer

// KeyKind names one of the identity keys that must be unique inside a batch.
type KeyKind string

const (
	KeyIDNumber KeyKind = "id_number"
	KeyDeviceID KeyKind = "device_id"
	KeyLogin    KeyKind = "login_email"
)

// BatchKeySet tracks identity keys seen across one validation pass so a later
// row repeating a key can point at the row that introduced it. Every row
// registers its keys whether or not it validates, which keeps duplicate
// attribution stable.
type BatchKeySet struct {
	seen map[KeyKind]map[string]int
}

// NewBatchKeySet returns an empty key set.
func NewBatchKeySet() *BatchKeySet {
	return &BatchKeySet{seen: map[KeyKind]map[string]int{}}
}

// Seen reports whether key was registered by an earlier row, and by which
// row number. Empty keys are never tracked.
func (b *BatchKeySet) Seen(kind KeyKind, key string) (int, bool) {
	row, ok := b.seen[kind][key]
	return row, ok
}

// Register records key against rowNumber. The first registration wins;
// re-registering an existing key is a no-op.
func (b *BatchKeySet) Register(kind KeyKind, key string, rowNumber int) {
	if key == "" {
		return
	}
	if b.seen[kind] == nil {
		b.seen[kind] = map[string]int{}
	}
	if _, ok := b.seen[kind][key]; !ok {
		b.seen[kind][key] = rowNumber
	}
}
