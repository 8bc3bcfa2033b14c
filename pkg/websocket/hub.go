package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub управляет подключёнными клиентами доски и рассылкой сообщений.
type Hub struct {
	clients     map[*Client]bool
	userClients map[uint64][]*Client
	Register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[uint64][]*Client),
		Register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run обслуживает регистрацию клиентов до отмены ctx. При остановке закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Debug("Клиент зарегистрирован", zap.Uint64("userID", client.UserID))
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Debug("Клиент отсоединён", zap.Uint64("userID", client.UserID))
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Join регистрирует клиента. false - хаб уже остановлен.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave не блокируется после остановки хаба: Run к тому моменту уже закрыл все соединения.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove вызывается под h.mu.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	clients := h.userClients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.userClients[client.UserID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
	}
}

// Count - число активных соединений.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func newEnvelope(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastToTeam отправляет сообщение всем, кто видит заявки команды teamID:
// клиентам без ограничения по команде и техникам этой команды.
// Медленный клиент, у которого переполнен буфер, пропускает сообщение.
func (h *Hub) BroadcastToTeam(teamID uint64, messageType string, payload interface{}) error {
	message, err := newEnvelope(messageType, payload)
	if err != nil {
		h.logger.Error("Ошибка сериализации сообщения для WebSocket", zap.Error(err))
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for client := range h.clients {
		if !client.Sees(teamID) {
			continue
		}
		select {
		case client.Send <- message:
			delivered++
		default:
			h.logger.Warn("Буфер клиента переполнен, сообщение пропущено", zap.Uint64("userID", client.UserID))
		}
	}
	h.logger.Debug("Сообщение разослано", zap.String("type", messageType), zap.Uint64("teamID", teamID), zap.Int("clients", delivered))
	return nil
}

// SendMessageToUser отправляет сообщение во все соединения пользователя.
func (h *Hub) SendMessageToUser(userID uint64, messageType string, payload interface{}) error {
	message, err := newEnvelope(messageType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("Буфер клиента переполнен, сообщение пропущено", zap.Uint64("userID", userID))
		}
	}
	return nil
}
