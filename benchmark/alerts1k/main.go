package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	fireGrpc "firewatch.xyz/alert-dispatch-service/pkg/grpc"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

var maxAlerts int = 1000
var racersPerAlert int = 3
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var grpcClient *fireGrpc.AlertServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

var failures atomic.Int64

func main() {
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = fireGrpc.NewAlertServiceClient(conn)

	fmt.Printf("gRPC server verified and connected\n")

	before := dashboardStats()

	var startTime time.Time
	var usedTime time.Duration

	alertIDs := make([]uint, maxAlerts)
	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxAlerts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alertIDs[i] = recordDetection(i)
			fmt.Printf("\rrecorded detection %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rrecorded %v detections with alerts: used time=%v seconds, throughput=%v action/second\n",
		maxAlerts, usedTime.Seconds(), float64(maxAlerts)/usedTime.Seconds(),
	)

	// several callers race on every alert; the counters must still move once
	startTime = time.Now()
	wg = sync.WaitGroup{}
	for _, alertID := range alertIDs {
		if alertID == 0 {
			continue
		}
		for range racersPerAlert {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doActions(alertID)
			}()
		}
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rraced actions on %v alerts: used time=%v seconds, throughput=%v action/second\n",
		maxAlerts, usedTime.Seconds(), float64(maxAlerts*racersPerAlert*3)/usedTime.Seconds(),
	)

	after := dashboardStats()
	fmt.Printf("responded_count: %v -> %v (expected +%v)\n", before.RespondedCount, after.RespondedCount, maxAlerts)
	fmt.Printf("acknowledged_count: %v -> %v (expected +%v)\n", before.AcknowledgedCount, after.AcknowledgedCount, maxAlerts)
	fmt.Printf("avg_response_time: %.2f minutes\n", after.AvgResponseTime)
	fmt.Printf("failed calls: %v\n", failures.Load())
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := float64(math.Pow10(decimal))
	return float64(math.Round(float64(val)*float64(multiplier))) / multiplier
}

func postJSON(path string, payload any, out any) bool {
	jsonData, _ := json.Marshal(payload)
	resp, err := http.Post(fmt.Sprintf("http://%s%s", httpHostPort, path), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		failures.Add(1)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		fmt.Printf("\nresponse status code %v for %v\n", resp.StatusCode, path)
		failures.Add(1)
		return false
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			failures.Add(1)
			return false
		}
	}
	return true
}

func callGrpc(method string, req map[string]any) *fireGrpc.Response {
	resp, err := grpcClient.Call(context.Background(), method, req)
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		failures.Add(1)
		return nil
	}
	if !resp.Success {
		fmt.Printf("\nresponse success = false: %v\n", resp.Message)
		failures.Add(1)
		return nil
	}
	return resp
}

func recordDetection(i int) uint {
	payload := map[string]any{
		"camera_id":      1 + i,
		"camera_name":    fmt.Sprintf("Camera %d", 1+i),
		"detection_type": []string{"fire", "smoke"}[i%2],
		"confidence":     rndFloat64(0.5, 1.0, 2),
		"location":       "Building A - Warehouse",
		"latitude":       rndFloat64(14.59, 14.61, 4),
		"longitude":      rndFloat64(120.97, 120.99, 4),
		"auto_alert":     true,
	}

	var recorded struct {
		Alert *models.Alert `json:"alert"`
	}
	if flipCoin() {
		if !postJSON("/detections", payload, &recorded) {
			return 0
		}
	} else {
		resp := callGrpc("RecordDetection", payload)
		if resp == nil {
			return 0
		}
		var err error
		if recorded, err = fireGrpc.DecodeData[struct {
			Alert *models.Alert `json:"alert"`
		}](resp); err != nil {
			failures.Add(1)
			return 0
		}
	}
	if recorded.Alert == nil {
		return 0
	}
	return recorded.Alert.ID
}

func doActions(alertID uint) {
	actions := []struct {
		name string
		body map[string]any
		path string
	}{
		{"Decide", map[string]any{"decision": "accepted"}, "decision"},
		{"UpdateFirefighterStatus", map[string]any{"status": "responding"}, "firefighter-status"},
		{"UpdateFirefighterStatus", map[string]any{"status": "acknowledged"}, "firefighter-status"},
	}
	for _, action := range actions {
		if flipCoin() {
			postJSON(fmt.Sprintf("/alerts/%d/%s", alertID, action.path), action.body, nil)
		} else {
			req := map[string]any{"alert_id": alertID}
			for k, v := range action.body {
				req[k] = v
			}
			callGrpc(action.name, req)
		}
		fmt.Printf("\rexecuted action %v for alert %v", action.name, alertID)
	}
}

func dashboardStats() models.DashboardStats {
	resp, err := http.Get(fmt.Sprintf("http://%s/api/dashboard", httpHostPort))
	if err != nil {
		log.Fatal("Failed to read dashboard:", err)
	}
	defer resp.Body.Close()

	var state models.DashboardState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		log.Fatal("Failed to decode dashboard:", err)
	}
	return state.Stats
}
