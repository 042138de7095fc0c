package resolution

import "sync"

// orderLocks — реестр мьютексов по идентификатору заказа. Все операции
// разрешения одного заказа сериализуются на его мьютексе, операции разных
// заказов идут параллельно. Записи не удаляются: число заказов в памяти
// одного процесса ограничено, а удаление под гонку дороже утечки.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOrderLocks() *orderLocks {
	return &orderLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// get возвращает мьютекс заказа, создавая его при первом обращении.
func (l *orderLocks) get(orderID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[orderID] = lock
	}
	return lock
}
