package stream

import "sync"

/*
Table tracks the live writer of each streaming task.  A writer exists
while its task is active; the handler removes it once the terminal
status update has been published.
*/
type Table struct {
	mu      sync.RWMutex
	writers map[string]*Writer
}

// NewTable returns an empty writer table.
func NewTable() *Table {
	return &Table{writers: make(map[string]*Writer)}
}

/*
GetOrCreate returns the live writer for the task, creating one when the
task has none.  The second return reports whether the writer was
created by this call.
*/
func (table *Table) GetOrCreate(taskID string) (*Writer, bool) {
	table.mu.Lock()
	defer table.mu.Unlock()

	if writer, ok := table.writers[taskID]; ok {
		return writer, false
	}

	writer := NewWriter(taskID)
	table.writers[taskID] = writer
	return writer, true
}

// Get returns the live writer for the task, or nil.
func (table *Table) Get(taskID string) *Writer {
	table.mu.RLock()
	defer table.mu.RUnlock()
	return table.writers[taskID]
}

/*
Remove closes the task's writer and drops it from the table.  Returns
whether a writer was present.
*/
func (table *Table) Remove(taskID string) bool {
	table.mu.Lock()
	writer, ok := table.writers[taskID]
	delete(table.writers, taskID)
	table.mu.Unlock()

	if ok {
		writer.Close()
	}

	return ok
}

// Count reports the number of live writers.
func (table *Table) Count() int {
	table.mu.RLock()
	defer table.mu.RUnlock()
	return len(table.writers)
}
