package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/current_meter/internal/config"
	"github.com/relabs-tech/current_meter/internal/current"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to RMS readings
	token := client.Subscribe(cfg.TopicCurrentRMS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r current.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: reading unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[RMS ]  I=%6.2f A  n=%4d  src=%-6s  %s\n",
			r.Amps, r.Samples, r.Source, r.Time.Format(time.RFC3339),
		)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCurrentRMS)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
