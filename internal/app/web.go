package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/current_meter/internal/config"
	"github.com/relabs-tech/current_meter/internal/current"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

func RunWeb() error {
	cfg := config.Get()

	var (
		mu          sync.RWMutex
		lastReading current.Reading
		haveReading bool
	)

	// Live stream clients. Each connected browser gets every reading pushed.
	var (
		clientsMu sync.Mutex
		clients   = make(map[*websocket.Conn]bool)
	)

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to readings: remember the latest and fan out to websockets
	token := client.Subscribe(cfg.TopicCurrentRMS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r current.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: reading unmarshal error: %v", err)
			return
		}

		mu.Lock()
		lastReading = r
		haveReading = true
		mu.Unlock()

		clientsMu.Lock()
		for conn := range clients {
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload()); err != nil {
				conn.Close()
				delete(clients, conn)
			}
		}
		clientsMu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicCurrentRMS)

	// 3) JSON API endpoint: latest reading
	http.HandleFunc("/api/current", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveReading {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastReading); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket live stream: one reading pushed per completed window
	http.HandleFunc("/ws/current", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}

		clientsMu.Lock()
		clients[conn] = true
		clientsMu.Unlock()
		log.Printf("web: websocket client connected (%s)", conn.RemoteAddr())

		// Drain the connection so we notice the client going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						log.Printf("web: websocket error: %v", err)
					}
					clientsMu.Lock()
					delete(clients, conn)
					clientsMu.Unlock()
					conn.Close()
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
