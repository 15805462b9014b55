package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
)

const defaultHeartbeat = 30 * time.Second

// StreamHandler pushes ledger changes to browsers as Server-Sent Events
type StreamHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[chan *entities.AppointmentEvent]struct{}
}

// NewStreamHandler creates a stream handler. A nil bus disables streaming.
func NewStreamHandler(eventBus providers.EventBus) *StreamHandler {
	return &StreamHandler{
		eventBus:  eventBus,
		heartbeat: defaultHeartbeat,
		clients:   make(map[chan *entities.AppointmentEvent]struct{}),
	}
}

// StreamAppointments handles GET /api/stream/appointments[?client_id=N].
// With client_id only that client's events and week clears are sent.
func (h *StreamHandler) StreamAppointments(w http.ResponseWriter, r *http.Request) {
	if h.eventBus == nil {
		respondWithError(w, http.StatusServiceUnavailable, "event streaming is not enabled")
		return
	}

	var clientID int64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid client_id parameter")
			return
		}
		clientID = id
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), providers.EventChannelAppointments)
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to appointment events")
		respondWithError(w, http.StatusBadGateway, "event stream unavailable")
		return
	}

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	clientChan := make(chan *entities.AppointmentEvent, 16)
	h.register(clientChan)
	defer h.unregister(clientChan)

	h.sendEvent(w, "connected", map[string]interface{}{
		"client_id": clientID,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	go forwardEvents(r.Context(), eventChan, clientChan, clientID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Int64("client_id", clientID).Msg("event stream closed")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event := <-clientChan:
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func forwardEvents(ctx context.Context, in <-chan *entities.AppointmentEvent, out chan<- *entities.AppointmentEvent, clientID int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-in:
			if !ok {
				return
			}
			if event == nil || (clientID != 0 && event.ClientID != 0 && event.ClientID != clientID) {
				continue
			}
			select {
			case out <- event:
			default:
				// slow reader, drop
			}
		}
	}
}

func (h *StreamHandler) register(ch chan *entities.AppointmentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
}

func (h *StreamHandler) unregister(ch chan *entities.AppointmentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

func (h *StreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stream event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}

// ClientCount returns the number of open streams
func (h *StreamHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
