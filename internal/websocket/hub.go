package websocket

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// ============ ОПТИМИЗАЦИЯ: sync.Pool для JSON буферов ============
// Убирает аллокации при каждом Broadcast (было ~1000+/сек)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512)) // начальный размер 512 байт
	},
}

// byteSlicePool переиспользует буферы для BroadcastRaw
var byteSlicePool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 512)
		return &buf
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер для broadcast сообщений всем подключенным клиентам.
// Обеспечивает real-time обновления данных на frontend без необходимости polling.
//
// Функции:
// - Регистрация новых WebSocket клиентов
// - Отмена регистрации отключенных клиентов
// - Broadcast сообщений всем активным клиентам
// - Рассылка каждого сообщения всем клиентам (без маршрутизации по типам)
// - Обработка переподключений
// - Очистка отключенных соединений
// - Потокобезопасная работа с клиентами (sync.RWMutex)
//
// Типы сообщений (messages.go):
// - lifecycleTransition: переход состояния бота
// - heartbeat: результат heartbeat/announce
// - matchingRound: результат раунда мэтчинга
// - tradeOffer: результат отправки трейд-оффера
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять сообщения: hub.Broadcast(message)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex

	// Канал остановки главного цикла
	stop chan struct{}

	// Счётчик сообщений, отброшенных из-за переполнения broadcast канала
	dropped int64
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и broadcast
//
// ОПТИМИЗАЦИЯ: исправлен race condition при удалении клиентов под RLock
// Теперь: копируем список → отправляем без Lock → удаляем под Write Lock
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client connected. Total clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client disconnected. Total clients: %d", len(h.clients))

		case message := <-h.broadcast:
			// ОПТИМИЗАЦИЯ: копируем список клиентов под коротким RLock
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			// Отправляем сообщения БЕЗ блокировки (не блокируем register/unregister)
			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
					// Сообщение отправлено успешно
				default:
					// Клиент не успевает обрабатывать сообщения - помечаем для удаления
					toRemove = append(toRemove, client)
				}
			}

			// Удаляем медленных клиентов под Write Lock
			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				log.Printf("Removed %d slow clients. Total clients: %d", len(toRemove), len(h.clients))
			}
		}
	}
}

// Broadcast отправляет сообщение всем подключенным клиентам
// ОПТИМИЗАЦИЯ: использует sync.Pool для буферов (убирает аллокации)
func (h *Hub) Broadcast(message interface{}) {
	// Получаем буфер из пула
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	// Сериализуем в буфер
	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернётся в пул)
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)

	// Возвращаем буфер в пул
	jsonBufferPool.Put(buf)

	h.enqueue(msgCopy)
}

// BroadcastRaw отправляет уже сериализованные данные всем клиентам,
// минуя JSON-кодирование.
func (h *Hub) BroadcastRaw(data []byte) {
	h.enqueue(data)
}

// enqueue кладёт сообщение в broadcast канал без блокировки.
// Если канал заполнен (Run не успевает разгребать), сообщение
// отбрасывается и учитывается в dropped.
func (h *Hub) enqueue(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		atomic.AddInt64(&h.dropped, 1)
	}
}

// DroppedMessages возвращает количество сообщений, отброшенных из-за
// переполнения broadcast канала.
func (h *Hub) DroppedMessages() int64 {
	return atomic.LoadInt64(&h.dropped)
}

// Stop останавливает главный цикл Hub. Run() завершится при следующей
// итерации select.
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastLifecycleTransition отправляет переход состояния бота.
func (h *Hub) BroadcastLifecycleTransition(steamID uint64, from, to string) {
	h.Broadcast(NewLifecycleTransitionMessage(steamID, from, to))
}

// BroadcastHeartbeat отправляет результат heartbeat/announce.
func (h *Hub) BroadcastHeartbeat(steamID uint64, kind string, success bool) {
	h.Broadcast(NewHeartbeatMessage(steamID, kind, success))
}

// BroadcastMatchingRound отправляет результат раунда активного мэтчинга.
func (h *Hub) BroadcastMatchingRound(steamID uint64, round int, madeProgress bool) {
	h.Broadcast(NewMatchingRoundMessage(steamID, round, madeProgress))
}

// BroadcastTradeOffer отправляет результат отправки трейд-оффера.
func (h *Hub) BroadcastTradeOffer(steamID, recipient uint64, outcome string, itemCount int) {
	h.Broadcast(NewTradeOfferMessage(steamID, recipient, outcome, itemCount))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
