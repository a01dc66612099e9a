package journal

import "sync"

type recordBuffer struct {
	mu      sync.Mutex
	records []*ReactionRecord
}

func newRecordBuffer() *recordBuffer {
	return &recordBuffer{}
}

// Add 返回追加后的长度
func (b *recordBuffer) Add(rec *ReactionRecord) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
	return len(b.records)
}

// Flush 取出全部记录并清空
func (b *recordBuffer) Flush() []*ReactionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	flushed := b.records
	b.records = nil
	return flushed
}

func (b *recordBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
