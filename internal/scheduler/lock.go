package scheduler

import "sync"

// keyedMutex serialises the conflict check and insert per (doctor, date) key,
// so two concurrent requests for the same slot cannot both pass the check.
type keyedMutex struct {
	mus sync.Map // key -> *sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	m, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
