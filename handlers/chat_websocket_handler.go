package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/redis"
	"github.com/carlospion/AvocadoLegal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Wire events. These are the only frame shapes the transport speaks.

type ChatMessagePayload struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	SenderType string     `json:"sender_type"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty"`
	SenderName string     `json:"sender_name"`
	SentAt     time.Time  `json:"sent_at"`
}

type ChatMessageEvent struct {
	Type    string             `json:"type"` // chat_message
	Message ChatMessagePayload `json:"message"`
}

type TypingEvent struct {
	Type       string `json:"type"` // typing
	SenderName string `json:"sender_name"`
	IsTyping   bool   `json:"is_typing"`
}

type NewCaseEvent struct {
	Type string               `json:"type"` // new_case
	Case *models.Conversation `json:"case"`
}

type CaseAssignedEvent struct {
	Type     string `json:"type"` // case_assigned
	CaseID   string `json:"case_id"`
	LawyerID string `json:"lawyer_id"`
}

// broadcastFrame is one outbound event, optionally skipping the originating
// session (typing indicators).
type broadcastFrame struct {
	Data      interface{}
	ExceptIDs map[string]bool
}

// ChatSession is one websocket connection subscribed to a channel.
type ChatSession struct {
	ID         string
	SenderType models.SenderType
	SenderID   *uuid.UUID
	Name       string
	Conn       *websocket.Conn
	Channel    *ChatChannel
	Send       chan interface{}
	ctx        context.Context
	cancel     context.CancelFunc
}

// ChatChannel fans events out to its subscribers. One exists per conversation
// plus a single shared lawyer-queue channel; subscribe/unsubscribe go through
// the Register/Unregister channels and nothing else mutates the session set.
type ChatChannel struct {
	ConversationID string // empty for the lawyer queue
	Sessions       map[string]*ChatSession
	mu             sync.RWMutex
	Broadcast      chan *broadcastFrame
	Register       chan *ChatSession
	Unregister     chan *ChatSession
	ctx            context.Context
	cancel         context.CancelFunc
	redis          *redis.RedisClient
}

// ChannelRegistry maps conversation ids to their channels and owns the shared
// lawyer-queue channel.
type ChannelRegistry struct {
	channels map[string]*ChatChannel
	queue    *ChatChannel
	mu       sync.RWMutex
	redis    *redis.RedisClient
}

func NewChannelRegistry(redisClient *redis.RedisClient) *ChannelRegistry {
	r := &ChannelRegistry{
		channels: make(map[string]*ChatChannel),
		redis:    redisClient,
	}
	r.queue = newChatChannel("", redisClient)
	go r.queue.run()
	return r
}

func newChatChannel(conversationID string, redisClient *redis.RedisClient) *ChatChannel {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatChannel{
		ConversationID: conversationID,
		Sessions:       make(map[string]*ChatSession),
		Broadcast:      make(chan *broadcastFrame, 256),
		Register:       make(chan *ChatSession, 16),
		Unregister:     make(chan *ChatSession, 16),
		ctx:            ctx,
		cancel:         cancel,
		redis:          redisClient,
	}
}

func (r *ChannelRegistry) GetOrCreate(conversationID string) *ChatChannel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel, exists := r.channels[conversationID]; exists {
		return channel
	}

	channel := newChatChannel(conversationID, r.redis)
	r.channels[conversationID] = channel

	go channel.run()

	return channel
}

// Get returns the channel for a conversation without creating one; nil when
// nobody is subscribed.
func (r *ChannelRegistry) Get(conversationID string) *ChatChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[conversationID]
}

func (r *ChannelRegistry) Queue() *ChatChannel {
	return r.queue
}

// run is the channel's dispatch loop. Subscribers that cannot keep up get
// dropped rather than blocking everyone else.
func (ch *ChatChannel) run() {
	for {
		select {
		case <-ch.ctx.Done():
			return

		case session := <-ch.Register:
			ch.mu.Lock()
			ch.Sessions[session.ID] = session
			ch.mu.Unlock()

			ch.addPresence(session)

		case session := <-ch.Unregister:
			ch.drop(session)

		case frame := <-ch.Broadcast:
			ch.mu.RLock()
			sessions := make([]*ChatSession, 0, len(ch.Sessions))
			for _, session := range ch.Sessions {
				sessions = append(sessions, session)
			}
			ch.mu.RUnlock()

			for _, session := range sessions {
				if frame.ExceptIDs != nil && frame.ExceptIDs[session.ID] {
					continue
				}

				select {
				case session.Send <- frame.Data:
				default:
					// evict directly: sending to ch.Unregister from its
					// own consumer would deadlock once the buffer fills
					log.Printf("Session %s send buffer full, disconnecting", session.ID)
					ch.drop(session)
				}
			}
		}
	}
}

// drop removes a session and closes its send channel. Only called from the
// dispatch goroutine.
func (ch *ChatChannel) drop(session *ChatSession) {
	ch.mu.Lock()
	if _, ok := ch.Sessions[session.ID]; ok {
		delete(ch.Sessions, session.ID)
		close(session.Send)
	}
	ch.mu.Unlock()

	ch.removePresence(session)
}

func (ch *ChatChannel) addPresence(session *ChatSession) {
	if ch.redis == nil || ch.ConversationID == "" {
		return
	}
	err := ch.redis.AddOnline(context.Background(), ch.ConversationID, redis.SessionInfo{
		SessionID:  session.ID,
		SenderType: string(session.SenderType),
		Name:       session.Name,
	})
	if err != nil {
		log.Printf("Failed to record presence: %v", err)
	}
}

func (ch *ChatChannel) removePresence(session *ChatSession) {
	if ch.redis == nil || ch.ConversationID == "" {
		return
	}
	if err := ch.redis.RemoveOnline(context.Background(), ch.ConversationID, session.ID); err != nil {
		log.Printf("Failed to remove presence: %v", err)
	}
}

type ChatWebSocketHandler struct {
	conversations *services.ConversationService
	registry      *ChannelRegistry
	redis         *redis.RedisClient
}

func NewChatWebSocketHandler(conversations *services.ConversationService, redisClient *redis.RedisClient) *ChatWebSocketHandler {
	h := &ChatWebSocketHandler{
		conversations: conversations,
		registry:      NewChannelRegistry(redisClient),
		redis:         redisClient,
	}
	conversations.SetChatNotifier(h)
	return h
}

// NotifyMessage broadcasts an already persisted message to the conversation's
// subscribers. Called by the conversation service after every persist, so the
// HTTP and websocket send paths fan out identically.
func (h *ChatWebSocketHandler) NotifyMessage(conversationID uuid.UUID, message *models.Message) {
	channel := h.registry.Get(conversationID.String())
	if channel == nil {
		return
	}
	channel.Broadcast <- &broadcastFrame{Data: ChatMessageEvent{
		Type: "chat_message",
		Message: ChatMessagePayload{
			ID:         message.ID.String(),
			Content:    message.Content,
			SenderType: string(message.SenderType),
			SenderID:   message.SenderID,
			SenderName: message.SenderName,
			SentAt:     message.SentAt,
		},
	}}
}

// NotifyNewCase tells every queue subscriber an unassigned case arrived.
func (h *ChatWebSocketHandler) NotifyNewCase(conversation *models.Conversation) {
	h.registry.Queue().Broadcast <- &broadcastFrame{Data: NewCaseEvent{
		Type: "new_case",
		Case: conversation,
	}}
}

// NotifyCaseAssigned tells queue subscribers a case left the queue.
func (h *ChatWebSocketHandler) NotifyCaseAssigned(conversationID, lawyerID uuid.UUID) {
	h.registry.Queue().Broadcast <- &broadcastFrame{Data: CaseAssignedEvent{
		Type:     "case_assigned",
		CaseID:   conversationID.String(),
		LawyerID: lawyerID.String(),
	}}
}

// HandleChatWS subscribes a session to one conversation channel. Lawyer
// sessions arrive through the JWT middleware; platform sessions through the
// Api-Key middleware. The conversation is resolved against the caller before
// the upgrade: a foreign conversation is the same generic 404 the HTTP
// endpoints return. Subscribers receive events from this moment on, no
// backlog replay.
func (h *ChatWebSocketHandler) HandleChatWS(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}

	senderType := models.SenderPlatformUser
	senderName := c.QueryParam("sender_name")
	var senderID *uuid.UUID
	if lawyer, ok := c.Get("lawyer").(*models.Lawyer); ok {
		if _, err := h.conversations.GetForLawyer(conversationID, lawyer.ID); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		senderType = models.SenderLawyer
		senderName = lawyer.Name
		senderID = &lawyer.ID
	} else if platform, ok := c.Get("platform").(*models.Platform); ok {
		if _, err := h.conversations.Get(platform.ID, conversationID); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
	} else {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "not authorized"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &ChatSession{
		ID:         uuid.New().String(),
		SenderType: senderType,
		SenderID:   senderID,
		Name:       senderName,
		Conn:       ws,
		Send:       make(chan interface{}, 256),
		ctx:        ctx,
		cancel:     cancel,
	}

	channel := h.registry.GetOrCreate(conversationID.String())
	session.Channel = channel

	channel.Register <- session

	go h.writePump(session)
	h.readPump(session, conversationID)

	return nil
}

// HandleQueueWS subscribes a lawyer to the shared queue channel.
func (h *ChatWebSocketHandler) HandleQueueWS(c echo.Context) error {
	lawyer, ok := c.Get("lawyer").(*models.Lawyer)
	if !ok {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "not a lawyer"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &ChatSession{
		ID:         uuid.New().String(),
		SenderType: models.SenderLawyer,
		SenderID:   &lawyer.ID,
		Name:       lawyer.Name,
		Conn:       ws,
		Send:       make(chan interface{}, 256),
		ctx:        ctx,
		cancel:     cancel,
	}

	queue := h.registry.Queue()
	session.Channel = queue

	queue.Register <- session

	go h.writePump(session)
	h.readDiscard(session)

	return nil
}

type inboundFrame struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	SenderName string `json:"sender_name"`
	IsTyping   bool   `json:"is_typing"`
}

func (h *ChatWebSocketHandler) readPump(session *ChatSession, conversationID uuid.UUID) {
	defer func() {
		session.cancel()
		session.Channel.Unregister <- session
		session.Conn.Close()
	}()

	session.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	session.Conn.SetPongHandler(func(string) error {
		session.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var frame inboundFrame
		err := session.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		switch frame.Type {
		case "", "chat_message":
			h.handleChatMessage(session, conversationID, frame)
		case "typing":
			h.handleTyping(session, frame)
		}
	}
}

// readDiscard drains a queue subscriber's connection; the queue channel is
// outbound only.
func (h *ChatWebSocketHandler) readDiscard(session *ChatSession) {
	defer func() {
		session.cancel()
		session.Channel.Unregister <- session
		session.Conn.Close()
	}()

	session.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	session.Conn.SetPongHandler(func(string) error {
		session.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := session.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *ChatWebSocketHandler) writePump(session *ChatSession) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		session.Conn.Close()
	}()

	for {
		select {
		case <-session.ctx.Done():
			return

		case event, ok := <-session.Send:
			session.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				session.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := session.Conn.WriteJSON(event); err != nil {
				log.Printf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			session.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := session.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleChatMessage persists through the conversation service, which then
// broadcasts via NotifyMessage. Persist-then-broadcast: a dead channel never
// loses the message. Sender identity comes from the authenticated session;
// frames only get to name the platform-side participant.
func (h *ChatWebSocketHandler) handleChatMessage(session *ChatSession, conversationID uuid.UUID, frame inboundFrame) {
	senderName := session.Name
	if session.SenderType == models.SenderPlatformUser && frame.SenderName != "" {
		senderName = frame.SenderName
	}

	_, err := h.conversations.SendMessage(conversationID, services.SendMessageInput{
		SenderType: session.SenderType,
		SenderID:   session.SenderID,
		SenderName: senderName,
		Content:    frame.Content,
	})
	if err != nil {
		log.Printf("Failed to save chat message: %v", err)
	}
}

// Typing indicators are ephemeral: broadcast to the other subscribers, never
// persisted.
func (h *ChatWebSocketHandler) handleTyping(session *ChatSession, frame inboundFrame) {
	name := session.Name
	if frame.SenderName != "" {
		name = frame.SenderName
	}
	session.Channel.Broadcast <- &broadcastFrame{
		Data: TypingEvent{
			Type:       "typing",
			SenderName: name,
			IsTyping:   frame.IsTyping,
		},
		ExceptIDs: map[string]bool{session.ID: true},
	}
}

// GetOnlineUsers lists the sessions currently subscribed to a conversation.
func (h *ChatWebSocketHandler) GetOnlineUsers(c echo.Context) error {
	conversationID := c.Param("conversationId")

	sessions, err := h.redis.GetOnline(c.Request().Context(), conversationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch online users",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"count":           len(sessions),
		"sessions":        sessions,
	})
}
