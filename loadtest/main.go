package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // ⚠️ Start small (50 pairs = 100 users). Database might choke on 1000 immediately.
	MsgCount  = 20 // Messages per user
)

type loginResponse struct {
	Token string `json:"access_token"`
	ID    string `json:"id"`
}

type bookResponse struct {
	ChatRoomID string `json:"chat_room_id"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d Users, %d Messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	// Each pair is one doctor treating one patient in a shared chat room.
	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(pairID int) {
	pass := "password123"

	doctorToken, doctorID := authenticate(fmt.Sprintf("doc_%d@load.test", pairID), pass, "doctor")
	patientToken, patientID := authenticate(fmt.Sprintf("pat_%d@load.test", pairID), pass, "patient")

	if doctorToken == "" || patientToken == "" {
		return // Failed auth
	}

	// Patient books the doctor; booking creates the room.
	roomID := bookAppointment(patientToken, doctorID)
	if roomID == "" {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)

	go spamChat(&wsWg, doctorToken, roomID, doctorID, fmt.Sprintf("doc_%d", pairID))
	go spamChat(&wsWg, patientToken, roomID, patientID, fmt.Sprintf("pat_%d", pairID))

	wsWg.Wait()
}

// authenticate registers (ignores error if exists) and logs in.
func authenticate(email, password, role string) (string, string) {
	name := strings.SplitN(email, "@", 2)[0]
	postJSON("/register", map[string]any{
		"email":      email,
		"password":   password,
		"role":       role,
		"first_name": name,
		"last_name":  "loadtest",
	})

	resp, err := postJSON("/login", map[string]any{"email": email, "password": password})
	if err != nil {
		log.Printf("❌ Login Failed [%s]: %v", email, err)
		return "", ""
	}

	var data loginResponse
	json.NewDecoder(resp.Body).Decode(&data)
	resp.Body.Close()

	return data.Token, data.ID
}

func bookAppointment(token, doctorID string) string {
	body := map[string]any{
		"doctor_id": doctorID,
		"date":      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", BaseURL+"/api/appointments", bytes.NewBuffer(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode >= 300 {
		log.Printf("❌ Book Appointment Failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	var data bookResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.ChatRoomID
}

func spamChat(wg *sync.WaitGroup, token, roomID, userID, who string) {
	defer wg.Done()

	// Connect WS and subscribe to the room channel so we also exercise fan-out.
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", who, err)
		return
	}
	defer conn.Close()

	socketID := awaitSocketID(conn)
	if socketID == "" {
		log.Printf("❌ No socket id [%s]", who)
		return
	}

	// Room channel is public, presence channel needs a signed grant.
	conn.WriteJSON(map[string]any{"event": "subscribe", "channel": "chat-room-" + roomID})

	presence := "presence-" + userID
	auth, channelData := authorizeChannel(token, socketID, presence)
	if auth != "" {
		conn.WriteJSON(map[string]any{
			"event":        "subscribe",
			"channel":      presence,
			"auth":         auth,
			"channel_data": channelData,
		})
	}

	// Drain incoming frames so the server's send buffer never fills.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		body := map[string]any{
			"content": fmt.Sprintf("LoadTest Msg %d from %s", i, who),
			"type":    "text",
		}
		jsonBody, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", fmt.Sprintf("%s/api/chat/rooms/%s/messages", BaseURL, roomID), bytes.NewBuffer(jsonBody))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("❌ Send Fail [%s]: %v", who, err)
			break
		}
		resp.Body.Close()
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", who, MsgCount)
}

// awaitSocketID reads frames until the connection-established event arrives.
func awaitSocketID(conn *websocket.Conn) string {
	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for time.Now().Before(deadline) {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return ""
		}
		if frame.Event == "connection_established" {
			var data struct {
				SocketID string `json:"socket_id"`
			}
			json.Unmarshal(frame.Data, &data)
			return data.SocketID
		}
	}
	return ""
}

func authorizeChannel(token, socketID, channel string) (string, string) {
	form := url.Values{}
	form.Set("socket_id", socketID)
	form.Set("channel_name", channel)

	req, _ := http.NewRequest("POST", BaseURL+"/realtime/auth", strings.NewReader(form.Encode()))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	var data struct {
		Auth        string `json:"auth"`
		ChannelData string `json:"channel_data"`
	}
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Auth, data.ChannelData
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
