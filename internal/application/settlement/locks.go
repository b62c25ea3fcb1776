package settlement

import "sync"

// keyedMutex serializa secciones críticas por clave: por usuario para el
// read-modify-write de saldos, por evento para resolve + fan-out. Los mutex
// no se liberan nunca; el mapa queda acotado por el número de usuarios y
// eventos del proceso.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock bloquea la clave y devuelve la función de unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
