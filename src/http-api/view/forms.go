package view

import (
	"sync"
	"time"
)

type formEntry struct {
	form     *Form
	lastUsed time.Time
}

// Forms keeps one Form per session id and forgets forms idle for longer
// than ttl.
type Forms struct {
	mu       sync.Mutex
	forms    map[string]*formEntry
	searcher StationSearcher
	ttl      time.Duration
	now      func() time.Time
}

func NewForms(searcher StationSearcher, ttl time.Duration) *Forms {
	return &Forms{
		forms:    make(map[string]*formEntry),
		searcher: searcher,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *Forms) Get(sessionID string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, entry := range r.forms {
		if now.Sub(entry.lastUsed) > r.ttl {
			delete(r.forms, id)
		}
	}

	entry, ok := r.forms[sessionID]
	if !ok {
		entry = &formEntry{form: NewForm(r.searcher)}
		r.forms[sessionID] = entry
	}
	entry.lastUsed = now
	return entry.form
}

func (r *Forms) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
